// Package model implements the class-model backend: records are checked by
// instantiating a Go struct from them.
//
// Columns map to exported fields by csv tag, then json tag, then field name.
// Pointer fields, and fields tagged `csv:"name,optional"`, may be absent or
// empty. A model that implements Validator gets a final cross-field check.
//
//	type Order struct {
//		ID    int     `csv:"id"`
//		Price float64 `csv:"price"`
//		Note  *string `csv:"note"`
//	}
//
//	func (o Order) Validate() error {
//		if o.Price < 0 {
//			return &model.FieldError{Column: "price", Err: errors.New("must not be negative")}
//		}
//		return nil
//	}
//
// Models are found either in a Catalog ("module:<module>:<Symbol>") or in a
// Go plugin built with -buildmode=plugin ("file:<path.so>:<Symbol>").
package model
