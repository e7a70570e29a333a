package logger

import "testing"

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		env     string
		level   string
		wantErr bool
	}{
		{name: "development", env: "development"},
		{name: "production", env: "production"},
		{name: "level override", env: "production", level: "debug"},
		{name: "bad level", env: "production", level: "loud", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.env, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.level == "debug" && !log.Core().Enabled(-1) {
				t.Fatalf("expected debug to be enabled")
			}
		})
	}
}
