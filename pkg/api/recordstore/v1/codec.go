package recordstorev1

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed is returned when a payload misses a required key or has the wrong shape.
var ErrMalformed = errors.New("malformed record store payload")

const (
	keyCollection = "collection"
	keyID         = "id"
	keyFields     = "fields"
	keyCreatedAt  = "createdAt"
	keyUpdatedAt  = "updatedAt"
)

// Record is the wire view of a stored record. Zero timestamps are omitted on the wire.
type Record struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// CollectionRequest builds the ListAll payload.
func CollectionRequest(collection string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(collection),
	}}
}

// IDRequest builds the GetByID and Delete payload.
func IDRequest(collection, id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(collection),
		keyID:         structpb.NewStringValue(id),
	}}
}

// WriteRequest builds the Create and Update payload. An empty id is left out.
func WriteRequest(collection, id string, fields map[string]any) (*structpb.Struct, error) {
	fs, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(collection),
		keyFields:     structpb.NewStructValue(fs),
	}}
	if id != "" {
		req.Fields[keyID] = structpb.NewStringValue(id)
	}
	return req, nil
}

// ParseCollection reads the required collection key.
func ParseCollection(req *structpb.Struct) (string, error) {
	collection := stringField(req, keyCollection)
	if collection == "" {
		return "", fmt.Errorf("%w: %s is required", ErrMalformed, keyCollection)
	}
	return collection, nil
}

// ParseIDRequest reads the required collection and id keys.
func ParseIDRequest(req *structpb.Struct) (collection, id string, err error) {
	if collection, err = ParseCollection(req); err != nil {
		return "", "", err
	}
	if id = stringField(req, keyID); id == "" {
		return "", "", fmt.Errorf("%w: %s is required", ErrMalformed, keyID)
	}
	return collection, id, nil
}

// ParseWriteRequest reads a Create or Update payload. The id may be empty.
// Missing fields decode as an empty map.
func ParseWriteRequest(req *structpb.Struct) (collection, id string, fields map[string]any, err error) {
	if collection, err = ParseCollection(req); err != nil {
		return "", "", nil, err
	}
	id = stringField(req, keyID)
	fields = map[string]any{}
	if v, ok := req.GetFields()[keyFields]; ok {
		s := v.GetStructValue()
		if s == nil {
			return "", "", nil, fmt.Errorf("%w: %s must be an object", ErrMalformed, keyFields)
		}
		fields = s.AsMap()
	}
	return collection, id, fields, nil
}

func EncodeRecord(r Record) (*structpb.Struct, error) {
	fs, err := structpb.NewStruct(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		keyID:     structpb.NewStringValue(r.ID),
		keyFields: structpb.NewStructValue(fs),
	}}
	if !r.CreatedAt.IsZero() {
		out.Fields[keyCreatedAt] = structpb.NewStringValue(r.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	if !r.UpdatedAt.IsZero() {
		out.Fields[keyUpdatedAt] = structpb.NewStringValue(r.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	return out, nil
}

func DecodeRecord(s *structpb.Struct) (Record, error) {
	r := Record{ID: stringField(s, keyID), Fields: map[string]any{}}
	if r.ID == "" {
		return Record{}, fmt.Errorf("%w: record without %s", ErrMalformed, keyID)
	}
	var err error
	if r.CreatedAt, err = timeField(s, keyCreatedAt); err != nil {
		return Record{}, err
	}
	if r.UpdatedAt, err = timeField(s, keyUpdatedAt); err != nil {
		return Record{}, err
	}
	if fs := s.GetFields()[keyFields].GetStructValue(); fs != nil {
		r.Fields = fs.AsMap()
	}
	return r, nil
}

func EncodeRecords(records []Record) (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(records))}
	for _, r := range records {
		s, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

func DecodeRecords(list *structpb.ListValue) ([]Record, error) {
	out := make([]Record, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: list element %d is not an object", ErrMalformed, i)
		}
		r, err := DecodeRecord(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func timeField(s *structpb.Struct, key string) (time.Time, error) {
	raw := stringField(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return t, nil
}
