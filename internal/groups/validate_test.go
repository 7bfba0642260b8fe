package groups

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subrules/internal/model"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		gs    []model.Group
		nodes []string
		code  string
	}{
		{
			name:  "ok",
			gs:    []model.Group{{Name: "A", Proxies: []string{"B", "n1"}}, {Name: "B", Proxies: []string{"DIRECT", "REJECT"}}},
			nodes: []string{"n1"},
		},
		{
			name: "duplicate group",
			gs:   []model.Group{{Name: "A", Proxies: []string{"DIRECT"}}, {Name: "A", Proxies: []string{"DIRECT"}}},
			code: "GROUP_VALIDATE_ERROR",
		},
		{
			name:  "group shadows node",
			gs:    []model.Group{{Name: "n1", Proxies: []string{"DIRECT"}}},
			nodes: []string{"n1"},
			code:  "GROUP_VALIDATE_ERROR",
		},
		{
			name: "dangling member",
			gs:   []model.Group{{Name: "A", Proxies: []string{"美国节点"}}},
			code: "REFERENCE_NOT_FOUND",
		},
		{
			name: "empty group",
			gs:   []model.Group{{Name: "A"}},
			code: "GROUP_VALIDATE_ERROR",
		},
		{
			name: "self cycle",
			gs:   []model.Group{{Name: "A", Proxies: []string{"A"}}},
			code: "GROUP_CYCLE",
		},
		{
			name: "long cycle",
			gs: []model.Group{
				{Name: "A", Proxies: []string{"B"}},
				{Name: "B", Proxies: []string{"C", "DIRECT"}},
				{Name: "C", Proxies: []string{"A"}},
			},
			code: "GROUP_CYCLE",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.gs, tc.nodes)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			var ae *AssembleError
			require.True(t, errors.As(err, &ae), "got %T: %v", err, err)
			assert.Equal(t, tc.code, ae.AppError.Code)
		})
	}
}

func TestValidate_CyclePath(t *testing.T) {
	err := Validate([]model.Group{
		{Name: "A", Proxies: []string{"B"}},
		{Name: "B", Proxies: []string{"A"}},
	}, nil)
	var ae *AssembleError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.AppError.Message, "A -> B -> A")
}
