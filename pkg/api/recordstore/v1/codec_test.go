package recordstorev1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestParseIDRequest(t *testing.T) {
	testCases := []struct {
		name    string
		req     *structpb.Struct
		wantErr bool
	}{
		{name: "valid", req: IDRequest("products", "p1")},
		{name: "missing id", req: CollectionRequest("products"), wantErr: true},
		{name: "missing collection", req: IDRequest("", "p1"), wantErr: true},
		{name: "nil request", req: nil, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collection, id, err := ParseIDRequest(tc.req)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "products", collection)
			assert.Equal(t, "p1", id)
		})
	}
}

func TestParseWriteRequest(t *testing.T) {
	t.Run("create without id", func(t *testing.T) {
		req, err := WriteRequest("products", "", map[string]any{"name": "Lamp", "price": 12.5})
		require.NoError(t, err)

		collection, id, fields, err := ParseWriteRequest(req)

		require.NoError(t, err)
		assert.Equal(t, "products", collection)
		assert.Empty(t, id)
		assert.Equal(t, map[string]any{"name": "Lamp", "price": 12.5}, fields)
	})

	t.Run("fields must be an object", func(t *testing.T) {
		req := CollectionRequest("products")
		req.Fields["fields"] = structpb.NewStringValue("nope")

		_, _, _, err := ParseWriteRequest(req)

		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("missing fields decode as empty", func(t *testing.T) {
		_, _, fields, err := ParseWriteRequest(IDRequest("products", "p1"))

		require.NoError(t, err)
		assert.Empty(t, fields)
	})
}

func TestDecodeRecords(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)
	list, err := EncodeRecords([]Record{
		{ID: "b", CreatedAt: created, UpdatedAt: created, Fields: map[string]any{"name": "B"}},
		{ID: "a", Fields: nil},
	})
	require.NoError(t, err)

	got, err := DecodeRecords(list)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID, "order is preserved")
	assert.True(t, created.Equal(got[0].CreatedAt))
	assert.Equal(t, "B", got[0].Fields["name"])
	assert.Equal(t, "a", got[1].ID)
	assert.True(t, got[1].CreatedAt.IsZero())
	assert.Empty(t, got[1].Fields)
}

func TestDecodeRecord_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		in   *structpb.Struct
	}{
		{name: "no id", in: &structpb.Struct{Fields: map[string]*structpb.Value{}}},
		{name: "bad timestamp", in: &structpb.Struct{Fields: map[string]*structpb.Value{
			"id":        structpb.NewStringValue("x"),
			"createdAt": structpb.NewStringValue("yesterday"),
		}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRecord(tc.in)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
