package calltimer

import (
	"reflect"
	"runtime"
	"strings"
)

// Metadata holds the identity fields a wrapper must not shadow
type Metadata struct {
	Name      string `json:"name" yaml:"name"`
	Doc       string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
}

// WithDoc returns a copy of m with the documentation replaced
func (m Metadata) WithDoc(doc string) Metadata {
	m.Doc = strings.TrimSpace(doc)
	return m
}

// MetadataOf derives Name and Signature from a func value.
// Non-func values yield the zero Metadata.
func MetadataOf(fn any) Metadata {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Metadata{}
	}

	meta := Metadata{Signature: v.Type().String()}
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		meta.Name = ShortName(rf.Name())
	}
	return meta
}

// ShortName strips the import path and package qualifier from a runtime
// symbol name: "github.com/x/y/pkg.(*T).M" becomes "(*T).M".
func ShortName(symbol string) string {
	if i := strings.LastIndex(symbol, "/"); i >= 0 {
		symbol = symbol[i+1:]
	}
	if i := strings.Index(symbol, "."); i >= 0 {
		symbol = symbol[i+1:]
	}
	// Method values carry a "-fm" suffix
	return strings.TrimSuffix(symbol, "-fm")
}
