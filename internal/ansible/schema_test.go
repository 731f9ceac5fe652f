// SPDX-License-Identifier: MPL-2.0

package ansible

import (
	"errors"
	"strings"
	"testing"
)

var testPaunchSpec = ParamSpec{Module: "paunch", Definition: "#Paunch", Required: []string{"config_id"}}

func TestParamSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		spec       ParamSpec
		params     map[string]any
		wantErr    string
		wantParams map[string]any
	}{
		{
			name:   "minimal",
			spec:   testPaunchSpec,
			params: map[string]any{"config_id": []any{"tripleo_step1"}},
		},
		{
			name:   "string config_id becomes list",
			spec:   testPaunchSpec,
			params: map[string]any{"config_id": "tripleo_step1,tripleo_step2"},
			wantParams: map[string]any{
				"config_id": []any{"tripleo_step1", "tripleo_step2"},
			},
		},
		{
			name:       "bool strings are coerced",
			spec:       testPaunchSpec,
			params:     map[string]any{"config_id": "a", "debug": "no", "healthcheck_disabled": "Yes"},
			wantParams: map[string]any{"debug": false, "healthcheck_disabled": true},
		},
		{
			name:    "unsupported parameter",
			spec:    testPaunchSpec,
			params:  map[string]any{"config_id": "a", "restart": true},
			wantErr: "Unsupported parameters for (paunch) module: restart. Supported parameters include: action, config, config_id,",
		},
		{
			name:    "missing required",
			spec:    testPaunchSpec,
			params:  map[string]any{"action": "cleanup"},
			wantErr: "missing required arguments: config_id",
		},
		{
			name:    "action outside choices",
			spec:    testPaunchSpec,
			params:  map[string]any{"config_id": "a", "action": "deploy"},
			wantErr: "invalid parameters",
		},
		{
			name:    "container_cli outside choices",
			spec:    testPaunchSpec,
			params:  map[string]any{"config_id": "a", "container_cli": "crio"},
			wantErr: "invalid parameters",
		},
		{
			name:    "uncoercible bool",
			spec:    testPaunchSpec,
			params:  map[string]any{"config_id": "a", "debug": "maybe"},
			wantErr: "invalid parameters",
		},
		{
			name:    "list of non-strings",
			spec:    ParamSpec{Module: "podman_container_info", Definition: "#ContainerInfo"},
			params:  map[string]any{"name": []any{"redis", true}},
			wantErr: "invalid parameters",
		},
		{
			name:       "container info single name",
			spec:       ParamSpec{Module: "podman_container_info", Definition: "#ContainerInfo"},
			params:     map[string]any{"name": "redis", "use_api": float64(1)},
			wantParams: map[string]any{"name": []any{"redis"}, "use_api": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.spec.Validate(tt.params)

			if tt.wantErr != "" {
				if !errors.Is(err, ErrInvalidParams) {
					t.Fatalf("expected ErrInvalidParams, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for k, want := range tt.wantParams {
				got := tt.params[k]
				if gotList, ok := got.([]any); ok {
					wantList := want.([]any)
					if len(gotList) != len(wantList) {
						t.Fatalf("%s = %v, want %v", k, got, want)
					}
					for i := range gotList {
						if gotList[i] != wantList[i] {
							t.Errorf("%s[%d] = %v, want %v", k, i, gotList[i], wantList[i])
						}
					}
					continue
				}
				if got != want {
					t.Errorf("%s = %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestParamSpec_UnknownDefinition(t *testing.T) {
	t.Parallel()

	err := ParamSpec{Module: "x", Definition: "#Nope"}.Validate(map[string]any{})
	if err == nil || errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
