package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/model"
)

type fakeService struct {
	widgets []model.Snapshot
	showErr error
}

func (f *fakeService) ShowWidget(context.Context) (model.WidgetID, error) {
	if f.showErr != nil {
		return "", f.showErr
	}
	id := model.WidgetID("01J0000000000000000000000" + string(rune('A'+len(f.widgets))))
	f.widgets = append(f.widgets, model.Snapshot{ID: id, Opacity: 1})
	return id, nil
}

func (f *fakeService) HideTopWidget(context.Context) (bool, error) {
	if len(f.widgets) == 0 {
		return false, nil
	}
	f.widgets = f.widgets[:len(f.widgets)-1]
	return true, nil
}

func (f *fakeService) HideAllWidgets(context.Context) (int, error) {
	n := len(f.widgets)
	f.widgets = nil
	return n, nil
}

func (f *fakeService) HideWidget(_ context.Context, id model.WidgetID) (bool, error) {
	for i, w := range f.widgets {
		if w.ID == id {
			f.widgets = append(f.widgets[:i], f.widgets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeService) HasActiveWidget() bool { return len(f.widgets) > 0 }

func (f *fakeService) Widgets(context.Context) ([]model.Snapshot, error) {
	return f.widgets, nil
}

func TestServer_Methods(t *testing.T) {
	svc := &fakeService{}
	s := NewServer(svc, nil)

	active, derr := s.HasActiveWidget()
	require.Nil(t, derr)
	assert.False(t, active)

	id, derr := s.ShowWidget()
	require.Nil(t, derr)
	assert.NotEmpty(t, id)
	_, derr = s.ShowWidget()
	require.Nil(t, derr)

	data, derr := s.ListWidgets()
	require.Nil(t, derr)
	var list []model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &list))
	assert.Len(t, list, 2)
	assert.Equal(t, model.WidgetID(id), list[0].ID)

	removed, derr := s.HideWidget(id)
	require.Nil(t, derr)
	assert.True(t, removed)
	removed, derr = s.HideWidget(id)
	require.Nil(t, derr)
	assert.False(t, removed)

	_, derr = s.ShowWidget()
	require.Nil(t, derr)
	removed, derr = s.HideTopWidget()
	require.Nil(t, derr)
	assert.True(t, removed)

	n, derr := s.HideAllWidgets()
	require.Nil(t, derr)
	assert.Equal(t, uint32(1), n)

	removed, derr = s.HideTopWidget()
	require.Nil(t, derr)
	assert.False(t, removed)

	data, derr = s.ListWidgets()
	require.Nil(t, derr)
	assert.Equal(t, "[]", data)
}

func TestServer_Errors(t *testing.T) {
	svc := &fakeService{showErr: engine.ErrPermissionDenied}
	s := NewServer(svc, nil)

	_, derr := s.ShowWidget()
	require.NotNil(t, derr)
	assert.Equal(t, ErrorPermissionDenied, derr.Name)

	svc.showErr = errors.New("boom")
	_, derr = s.ShowWidget()
	require.NotNil(t, derr)
	assert.Equal(t, ErrorFailed, derr.Name)
	assert.Equal(t, "boom", derr.Body[0])
}

func TestServer_EmitWithoutConnection(t *testing.T) {
	s := NewServer(&fakeService{}, nil)
	assert.Error(t, s.EmitActiveChanged(true))

	ch := make(chan bool, 2)
	ch <- true
	ch <- false
	close(ch)

	done := make(chan struct{})
	go func() {
		s.ForwardLifecycle(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ForwardLifecycle did not return after channel close")
	}
}

func TestIntrospection(t *testing.T) {
	names := map[string]bool{}
	for _, m := range perchMethods() {
		names[m.Name] = true
	}
	for _, want := range []string{"ShowWidget", "HideTopWidget", "HideAllWidgets", "HideWidget", "HasActiveWidget", "ListWidgets"} {
		assert.True(t, names[want], want)
	}
	require.Len(t, perchSignals(), 1)
	assert.Equal(t, "ActiveChanged", perchSignals()[0].Name)
}
