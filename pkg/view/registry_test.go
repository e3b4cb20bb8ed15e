package view

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall(t *testing.T) {
	reg := NewRegistry(nil)
	p := &recordingPipeline{}

	require.NoError(t, Install(reg, p))

	assert.Equal(t, []string{"recline_graph", "recline_grid", "recline_map"}, reg.Names())
	assert.Len(t, p.calls, 3, "assets are registered once")

	graph, ok := reg.Get("recline_graph")
	require.True(t, ok)
	assert.Equal(t, Graph, graph.Variant())
}

func TestInstall_AssetFailure(t *testing.T) {
	reg := NewRegistry(nil)
	p := &recordingPipeline{failOn: "public:theme/public", failErr: errors.New("missing")}

	err := Install(reg, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register assets")
	assert.Empty(t, reg.Names(), "no view types registered after a failed install")
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(NewGrid()))

	err := reg.Register(NewGrid())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(NewMap()))

	c, err := reg.Lookup("recline_map")
	require.NoError(t, err)
	assert.Equal(t, "recline_map", c.Info().Name)

	_, err = reg.Lookup("recline_table")
	var unknown *UnknownViewError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "recline_table", unknown.Type)
	assert.Equal(t, []string{"recline_map"}, unknown.Available)
}

func TestRegistry_Viewable(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, Install(reg, &recordingPipeline{}))

	assert.Len(t, reg.Viewable(Resource{"datastore_active": true}), 3)
	assert.Empty(t, reg.Viewable(Resource{"datastore_active": false}))
	assert.Empty(t, reg.Viewable(Resource{}))
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, Install(reg, &recordingPipeline{}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, c := range reg.List() {
				_, _ = c.TemplateVariables(Resource{"id": "r"}, ViewData{"id": "v"})
				_ = c.Info()
			}
		}()
	}
	wg.Wait()
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{in: "recline_grid", want: Grid},
		{in: "graph", want: Graph},
		{in: " MAP ", want: Map},
		{in: "table", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if tt.wantErr {
				var unknown *UnknownViewError
				require.True(t, errors.As(err, &unknown))
				assert.Equal(t, []string{"recline_grid", "recline_graph", "recline_map"}, unknown.Available)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
