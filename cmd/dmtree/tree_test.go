package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/kardianos/dmtree"
	"github.com/kardianos/dmtree/dmmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTree(t *testing.T) {
	p, _ := newTestProvider(t)

	tests := []struct {
		name  string
		depth int
		want  string
	}{
		{
			name:  "all",
			depth: 0,
			want: "prod  Devices\n" +
				"├── dev-1  thermo (registered)\n" +
				"│   ├── /3/0/0\n" +
				"│   └── /3303/0/5700  temperature\n" +
				"└── dev-2\n",
		},
		{
			name:  "devices only",
			depth: 2,
			want: "prod  Devices\n" +
				"├── dev-1  thermo (registered)\n" +
				"└── dev-2\n",
		},
		{
			name:  "roots only",
			depth: 1,
			want:  "prod  Devices\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printTree(context.Background(), &buf, p, tt.depth, true))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintTreeEmpty(t *testing.T) {
	p, err := dmtree.New(dmtree.Config{State: dmmock.NewState(), Secrets: dmmock.NewSecrets()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printTree(context.Background(), &buf, p, 0, true))
	assert.Contains(t, buf.String(), "set-access-key")
}

func TestPrintTreeShowsErrors(t *testing.T) {
	p, api := newTestProvider(t)
	api.FailWith(500)

	var buf bytes.Buffer
	require.NoError(t, printTree(context.Background(), &buf, p, 0, true))
	assert.Contains(t, buf.String(), "└── ")
	assert.Contains(t, buf.String(), "500")
}

func TestPrintTreeCanceled(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, printTree(ctx, &buf, p, 0, true), context.Canceled)
}
