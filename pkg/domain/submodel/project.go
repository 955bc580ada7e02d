package submodel

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const elementsKey = "submodelElements"

// Project returns the JSON representation of s for the requested content.
// The stored document is never modified.
func Project(s *Submodel, content Content) (json.RawMessage, error) {
	switch content {
	case ContentFull, "":
		return s.Bytes(), nil
	case ContentMetadata:
		return metadataOf(s.raw)
	case ContentValue:
		return valueOnlyOf(s.raw)
	default:
		return nil, fmt.Errorf("%w: unsupported content %q", ErrBadRequest, content)
	}
}

func metadataOf(raw []byte) (json.RawMessage, error) {
	if !gjson.GetBytes(raw, elementsKey).Exists() {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}

	out, err := sjson.DeleteBytes(raw, elementsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to strip submodel elements: %w", err)
	}
	return out, nil
}

func valueOnlyOf(raw []byte) (json.RawMessage, error) {
	values := elementsValue(gjson.GetBytes(raw, elementsKey))

	out, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value-only view: %w", err)
	}
	return out, nil
}

// elementsValue maps each element's idShort to its value-only form.
// Elements without idShort or without a value are left out.
func elementsValue(elements gjson.Result) map[string]any {
	values := make(map[string]any)

	elements.ForEach(func(_, elem gjson.Result) bool {
		idShort := elem.Get("idShort").String()
		if idShort == "" {
			return true
		}
		if v, ok := elementValue(elem); ok {
			values[idShort] = v
		}
		return true
	})

	return values
}

func elementValue(elem gjson.Result) (any, bool) {
	switch elem.Get("modelType").String() {
	case "MultiLanguageProperty":
		return langStrings(elem.Get("value"))

	case "Range":
		return pick(elem, "min", "max")

	case "File", "Blob":
		return pick(elem, "contentType", "value")

	case "SubmodelElementCollection":
		if !elem.Get("value").Exists() {
			return nil, false
		}
		return elementsValue(elem.Get("value")), true

	case "SubmodelElementList":
		items := elem.Get("value")
		if !items.Exists() {
			return nil, false
		}
		list := make([]any, 0)
		items.ForEach(func(_, item gjson.Result) bool {
			if v, ok := elementValue(item); ok {
				list = append(list, v)
			}
			return true
		})
		return list, true

	case "RelationshipElement":
		return pick(elem, "first", "second")

	case "AnnotatedRelationshipElement":
		v, ok := pick(elem, "first", "second")
		if !ok {
			return nil, false
		}
		if ann := elem.Get("annotations"); ann.Exists() {
			v["annotations"] = elementsValue(ann)
		}
		return v, true

	case "Entity":
		v := make(map[string]any)
		if st := elem.Get("statements"); st.Exists() {
			v["statements"] = elementsValue(st)
		}
		for _, key := range []string{"entityType", "globalAssetId"} {
			if r := elem.Get(key); r.Exists() {
				v[key] = json.RawMessage(r.Raw)
			}
		}
		return v, len(v) > 0

	default:
		// Property, ReferenceElement and anything carrying a plain value.
		v := elem.Get("value")
		if !v.Exists() {
			return nil, false
		}
		return json.RawMessage(v.Raw), true
	}
}

func langStrings(value gjson.Result) (any, bool) {
	if !value.Exists() {
		return nil, false
	}

	out := make([]map[string]string, 0)
	value.ForEach(func(_, ls gjson.Result) bool {
		out = append(out, map[string]string{
			ls.Get("language").String(): ls.Get("text").String(),
		})
		return true
	})
	return out, true
}

func pick(elem gjson.Result, keys ...string) (map[string]any, bool) {
	v := make(map[string]any, len(keys))
	for _, key := range keys {
		if r := elem.Get(key); r.Exists() {
			v[key] = json.RawMessage(r.Raw)
		}
	}
	return v, len(v) > 0
}
