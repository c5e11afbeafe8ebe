package learning

import (
	"testing"

	"github.com/yungbote/studypact-backend/internal/types"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		name string
		sig  types.Signals
		prev string
		want string
	}{
		{
			name: "healthy stays active",
			sig:  types.Signals{Adherence: 0.9, Knowledge: 0.7, Retention: 0.8},
			prev: types.StatusActive,
			want: types.StatusActive,
		},
		{
			name: "low adherence alone trips at_risk",
			sig:  types.Signals{Adherence: 0.39, Knowledge: 0.9, Retention: 0.9},
			prev: types.StatusActive,
			want: types.StatusAtRisk,
		},
		{
			name: "weak knowledge and retention together trip at_risk",
			sig:  types.Signals{Adherence: 0.8, Knowledge: 0.29, Retention: 0.29},
			prev: types.StatusActive,
			want: types.StatusAtRisk,
		},
		{
			name: "weak knowledge alone is not enough",
			sig:  types.Signals{Adherence: 0.8, Knowledge: 0.2, Retention: 0.6},
			prev: types.StatusActive,
			want: types.StatusActive,
		},
		{
			name: "weak retention alone is not enough",
			sig:  types.Signals{Adherence: 0.8, Knowledge: 0.6, Retention: 0.1},
			prev: types.StatusActive,
			want: types.StatusActive,
		},
		{
			name: "boundary adherence exactly at floor is not at_risk",
			sig:  types.Signals{Adherence: 0.4, Knowledge: 0.5, Retention: 0.5},
			prev: types.StatusActive,
			want: types.StatusActive,
		},
		{
			name: "previously at_risk with recovered adherence goes recovering",
			sig:  types.Signals{Adherence: 0.6, Knowledge: 0.5, Retention: 0.5},
			prev: types.StatusAtRisk,
			want: types.StatusRecovering,
		},
		{
			name: "previously at_risk and still failing stays at_risk",
			sig:  types.Signals{Adherence: 0.2, Knowledge: 0.5, Retention: 0.5},
			prev: types.StatusAtRisk,
			want: types.StatusAtRisk,
		},
		{
			name: "recovering graduates to active once prev is not at_risk",
			sig:  types.Signals{Adherence: 0.7, Knowledge: 0.6, Retention: 0.6},
			prev: types.StatusRecovering,
			want: types.StatusActive,
		},
		{
			name: "empty previous status treated as active",
			sig:  types.Signals{Adherence: 0.7, Knowledge: 0.6, Retention: 0.6},
			prev: "",
			want: types.StatusActive,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyStatus(tc.sig, tc.prev)
			if got != tc.want {
				t.Fatalf("ClassifyStatus(%+v, %q) = %q, want %q", tc.sig, tc.prev, got, tc.want)
			}
		})
	}
}
