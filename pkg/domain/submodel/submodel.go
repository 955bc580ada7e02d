package submodel

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ModelType is the modelType value carried by submodel documents.
const ModelType = "Submodel"

// Submodel is a stored submodel document. The document is kept as received;
// only the id is interpreted.
type Submodel struct {
	id  string
	raw []byte
}

// Parse validates data as a submodel document and returns it.
func Parse(data []byte) (*Submodel, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrBadRequest)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: submodel must be a JSON object", ErrBadRequest)
	}

	id := doc.Get("id")
	if id.Type != gjson.String || id.String() == "" {
		return nil, fmt.Errorf("%w: submodel id is required", ErrBadRequest)
	}

	if mt := doc.Get("modelType"); mt.Exists() && mt.String() != ModelType {
		return nil, fmt.Errorf("%w: unexpected modelType %q", ErrBadRequest, mt.String())
	}

	if idShort := doc.Get("idShort"); idShort.Exists() && idShort.Type != gjson.String {
		return nil, fmt.Errorf("%w: idShort must be a string", ErrBadRequest)
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	return &Submodel{id: id.String(), raw: raw}, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(data string) *Submodel {
	sm, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return sm
}

// ID returns the submodel identifier.
func (s *Submodel) ID() string {
	return s.id
}

// Bytes returns a copy of the full document.
func (s *Submodel) Bytes() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// MarshalJSON returns the full document.
func (s *Submodel) MarshalJSON() ([]byte, error) {
	return s.Bytes(), nil
}
