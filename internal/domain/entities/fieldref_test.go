package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldRef(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    FieldRef
		wantErr bool
	}{
		{
			name: "deceased field",
			path: "deceased.fullName",
			want: FieldRef{Scope: ScopeDeceased, Name: "fullName"},
		},
		{
			name: "parents field",
			path: "parents.mother",
			want: FieldRef{Scope: ScopeParents, Name: "mother"},
		},
		{
			name: "indexed child field",
			path: "children[12].birth",
			want: FieldRef{Scope: ScopeChild, Index: 12, Name: "birth"},
		},
		{name: "unknown block", path: "witness.name", wantErr: true},
		{name: "missing index", path: "children.name", wantErr: true},
		{name: "negative index", path: "children[-1].name", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldRef(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.path, got.String())
		})
	}
}
