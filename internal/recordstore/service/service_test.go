package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/abgdnv/storefront/internal/recordstore/store"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context, collection string) ([]store.Record, error) {
	args := m.Called(ctx, collection)
	var recs []store.Record
	if args.Get(0) != nil {
		recs = args.Get(0).([]store.Record)
	}
	return recs, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, collection, id string) (*store.Record, error) {
	args := m.Called(ctx, collection, id)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, collection, id string, fields map[string]any) (*store.Record, error) {
	args := m.Called(ctx, collection, id, fields)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) Replace(ctx context.Context, collection, id string, fields map[string]any) (*store.Record, error) {
	args := m.Called(ctx, collection, id, fields)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, collection, id string) error {
	return m.Called(ctx, collection, id).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func recordArg(v any) *store.Record {
	if v == nil {
		return nil
	}
	return v.(*store.Record)
}

// recordingPublisher keeps every published event and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RecordChangedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := e.(events.RecordChangedEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(s store.RecordStore, p messaging.Publisher) *Service {
	svc := NewService(s, p, discard)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestService_List(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name       string
		collection string
		recs       []store.Record
		storeErr   error
		expected   []RecordDto
		expectErr  error
	}{
		{
			name:       "Success - records in order",
			collection: "products",
			recs: []store.Record{
				{Collection: "products", ID: "b", Fields: map[string]any{"name": "B"}, CreatedAt: created},
				{Collection: "products", ID: "a", CreatedAt: created},
			},
			expected: []RecordDto{
				{ID: "b", Fields: map[string]any{"name": "B"}, CreatedAt: created},
				{ID: "a", Fields: map[string]any{}, CreatedAt: created},
			},
		},
		{
			name:       "Success - empty collection",
			collection: "products",
			recs:       []store.Record{},
			expected:   []RecordDto{},
		},
		{
			name:       "Error - store failure",
			collection: "products",
			storeErr:   errors.New("connection refused"),
			expectErr:  errors.New("connection refused"),
		},
		{
			name:       "Error - invalid collection",
			collection: "bad name!",
			expectErr:  rerrors.ErrInvalidArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			st := new(mockStore)
			if tc.expectErr == nil || tc.storeErr != nil {
				st.On("List", mock.Anything, tc.collection).Return(tc.recs, tc.storeErr)
			}
			svc := newTestService(st, nil)

			// when
			got, err := svc.List(context.Background(), tc.collection)

			// then
			switch {
			case tc.storeErr != nil:
				require.ErrorIs(t, err, tc.storeErr)
			case tc.expectErr != nil:
				require.ErrorIs(t, err, tc.expectErr)
				st.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
			st.AssertExpectations(t)
		})
	}
}

func TestService_Get(t *testing.T) {
	t.Run("not found is wrapped", func(t *testing.T) {
		// given
		st := new(mockStore)
		st.On("Get", mock.Anything, "products", "p1").Return(nil, rerrors.ErrRecordNotFound)
		svc := newTestService(st, nil)

		// when
		got, err := svc.Get(context.Background(), "products", "p1")

		// then
		require.ErrorIs(t, err, rerrors.ErrRecordNotFound)
		assert.Nil(t, got)
	})

	t.Run("blank id is rejected", func(t *testing.T) {
		st := new(mockStore)
		svc := newTestService(st, nil)

		_, err := svc.Get(context.Background(), "products", "   ")

		require.ErrorIs(t, err, rerrors.ErrInvalidArgument)
		st.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Create(t *testing.T) {
	fields := map[string]any{"name": "Lamp"}

	t.Run("keeps the caller id and publishes", func(t *testing.T) {
		// given
		st := new(mockStore)
		st.On("Insert", mock.Anything, "products", "p1", fields).
			Return(&store.Record{Collection: "products", ID: "p1", Fields: fields}, nil)
		pub := &recordingPublisher{}
		svc := newTestService(st, pub)

		// when
		got, err := svc.Create(context.Background(), "products", RecordCreateDto{ID: "p1", Fields: fields})

		// then
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
		require.Len(t, pub.events, 1)
		assert.Equal(t, events.RecordChangedEvent{
			Carrier:    pub.events[0].Carrier,
			Collection: "products",
			RecordID:   "p1",
			Operation:  events.RecordCreated,
			OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}, pub.events[0])
		st.AssertExpectations(t)
	})

	t.Run("generates a missing id", func(t *testing.T) {
		// given
		st := new(mockStore)
		var insertedID string
		st.On("Insert", mock.Anything, "products", mock.AnythingOfType("string"), fields).
			Run(func(args mock.Arguments) { insertedID = args.String(2) }).
			Return(&store.Record{ID: "generated", Fields: fields}, nil)
		svc := newTestService(st, nil)

		// when
		_, err := svc.Create(context.Background(), "products", RecordCreateDto{Fields: fields})

		// then
		require.NoError(t, err)
		assert.Len(t, insertedID, 36)
	})

	t.Run("duplicate id does not publish", func(t *testing.T) {
		// given
		st := new(mockStore)
		st.On("Insert", mock.Anything, "products", "p1", fields).Return(nil, rerrors.ErrRecordExists)
		pub := &recordingPublisher{}
		svc := newTestService(st, pub)

		// when
		_, err := svc.Create(context.Background(), "products", RecordCreateDto{ID: "p1", Fields: fields})

		// then
		require.ErrorIs(t, err, rerrors.ErrRecordExists)
		assert.Empty(t, pub.events)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		// given
		st := new(mockStore)
		st.On("Insert", mock.Anything, "products", "p1", fields).
			Return(&store.Record{ID: "p1", Fields: fields}, nil)
		svc := newTestService(st, &recordingPublisher{err: errors.New("nats down")})

		// when
		got, err := svc.Create(context.Background(), "products", RecordCreateDto{ID: "p1", Fields: fields})

		// then
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		st := new(mockStore)
		svc := newTestService(st, nil)

		_, err := svc.Create(context.Background(), "products", RecordCreateDto{ID: "p1"})

		require.ErrorIs(t, err, rerrors.ErrInvalidArgument)
		st.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	fields := map[string]any{"name": "Desk Lamp"}

	testCases := []struct {
		name     string
		storeErr error
		events   int
	}{
		{name: "Success", events: 1},
		{name: "Error - not found", storeErr: rerrors.ErrRecordNotFound},
	}

	for _, tc := range testCases {
		t.Run("update "+tc.name, func(t *testing.T) {
			// given
			st := new(mockStore)
			var rec *store.Record
			if tc.storeErr == nil {
				rec = &store.Record{ID: "p1", Fields: fields}
			}
			st.On("Replace", mock.Anything, "products", "p1", fields).Return(rec, tc.storeErr)
			pub := &recordingPublisher{}
			svc := newTestService(st, pub)

			// when
			_, err := svc.Update(context.Background(), "products", "p1", RecordUpdateDto{Fields: fields})

			// then
			if tc.storeErr != nil {
				require.ErrorIs(t, err, tc.storeErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, events.RecordUpdated, pub.events[0].Operation)
			}
			assert.Len(t, pub.events, tc.events)
		})

		t.Run("delete "+tc.name, func(t *testing.T) {
			// given
			st := new(mockStore)
			st.On("Delete", mock.Anything, "products", "p1").Return(tc.storeErr)
			pub := &recordingPublisher{}
			svc := newTestService(st, pub)

			// when
			err := svc.Delete(context.Background(), "products", "p1")

			// then
			if tc.storeErr != nil {
				require.ErrorIs(t, err, tc.storeErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, events.RecordDeleted, pub.events[0].Operation)
			}
			assert.Len(t, pub.events, tc.events)
		})
	}
}

func TestNewValidator_Collection(t *testing.T) {
	v := NewValidator()
	testCases := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "simple", value: "products", valid: true},
		{name: "dash and underscore", value: "gift-cards_2", valid: true},
		{name: "empty", value: "", valid: false},
		{name: "dot", value: "a.b", valid: false},
		{name: "wildcard", value: "*", valid: false},
		{name: "too long", value: string(make([]byte, 65)), valid: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Var(tc.value, "collection")
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewValidator_NotBlank(t *testing.T) {
	require.NotPanics(t, func() { NewValidator() })
	v := NewValidator()
	testCases := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "text", value: "p1", valid: true},
		{name: "spaces", value: "   ", valid: false},
		{name: "empty", value: "", valid: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Var(tc.value, "notblank")
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
