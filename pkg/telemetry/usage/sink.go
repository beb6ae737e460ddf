package usage

// Sink receives completed request records. Implementations must not block;
// the dispatch engine calls Record on its request path and moves on without
// checking for delivery.
type Sink interface {
	Record(rec *Record)
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) Record(*Record) {}

// MultiSink fans records out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(rec *Record) {
	for _, s := range m {
		s.Record(rec)
	}
}
