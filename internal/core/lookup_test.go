package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/model"
)

func testWidgets() []model.Snapshot {
	return []model.Snapshot{
		{ID: "01JBX0000000000000000AAAAA", Position: model.Point{X: 10, Y: 500}, Opacity: 1},
		{ID: "01JBX0000000000000000BBBBB", Position: model.Point{X: 20, Y: 100}, Opacity: 0.5},
		{ID: "01JBY0000000000000000CCCCC", Position: model.Point{X: 30, Y: 900}, Opacity: 1, Locked: true},
	}
}

func TestLookupByID(t *testing.T) {
	widgets := testWidgets()

	t.Run("found", func(t *testing.T) {
		result := LookupByID(widgets, "01JBX0000000000000000BBBBB")
		require.NotNil(t, result)
		assert.Equal(t, 20.0, result.Position.X)
	})

	t.Run("not found", func(t *testing.T) {
		assert.Nil(t, LookupByID(widgets, "notexist"))
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Nil(t, LookupByID(nil, "01JBX0000000000000000AAAAA"))
	})
}

func TestLookupByIndex(t *testing.T) {
	widgets := testWidgets()

	tests := []struct {
		name  string
		index int
		want  model.WidgetID
	}{
		{"bottom", 1, "01JBX0000000000000000AAAAA"},
		{"top", 3, "01JBY0000000000000000CCCCC"},
		{"zero", 0, ""},
		{"negative", -1, ""},
		{"past end", 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LookupByIndex(widgets, tt.index)
			if tt.want == "" {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.ID)
		})
	}
}

func TestResolve(t *testing.T) {
	widgets := testWidgets()

	tests := []struct {
		name    string
		ref     string
		want    model.WidgetID
		wantErr error
	}{
		{"index", "2", "01JBX0000000000000000BBBBB", nil},
		{"full id", "01JBY0000000000000000CCCCC", "01JBY0000000000000000CCCCC", nil},
		{"short id lower case", "0aaaaa", "01JBX0000000000000000AAAAA", nil},
		{"unique prefix", "01JBY", "01JBY0000000000000000CCCCC", nil},
		{"ambiguous prefix", "01JBX", "", ErrAmbiguous},
		{"unknown", "ZZZZZZ", "", ErrNotFound},
		{"index out of range", "7", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(widgets, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.ID)
		})
	}

	_, err := Resolve(widgets, "  ")
	assert.Error(t, err)
}

func TestTop(t *testing.T) {
	assert.Nil(t, Top(nil))

	top := Top(testWidgets())
	require.NotNil(t, top)
	assert.Equal(t, model.WidgetID("01JBY0000000000000000CCCCC"), top.ID)
}
