package csvmodel

// Record is one data row bound to the header's column names.
//
// Columns missing from a short row are absent, not empty; fields beyond the
// header are dropped. Iteration follows header order.
type Record struct {
	line   int
	names  []string
	values map[string]string
}

// NewRecord zips header with fields. The shorter of the two wins.
func NewRecord(line int, header, fields []string) Record {
	n := min(len(header), len(fields))
	r := Record{
		line:   line,
		names:  make([]string, 0, n),
		values: make(map[string]string, n),
	}
	for i := 0; i < n; i++ {
		name := header[i]
		if _, dup := r.values[name]; !dup {
			r.names = append(r.names, name)
		}
		r.values[name] = fields[i]
	}
	return r
}

// Line is the file line the record was read from.
func (r Record) Line() int { return r.line }

// Get returns the raw value of a column and whether the column is present.
func (r Record) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether the column is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Columns returns the present column names in header order.
func (r Record) Columns() []string {
	return append([]string(nil), r.names...)
}

// Len is the number of present columns.
func (r Record) Len() int { return len(r.names) }

// Map returns a copy of the record as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Index returns the header position of a present column, or -1.
func (r Record) Index(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}
