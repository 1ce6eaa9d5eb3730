package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gogpu/framegraph/config"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		scene   scene
		targets int
		passes  int
		clears  int
	}{
		{"one camera", scene{cameras: 1, sprites: 3}, 1, 1, 1},
		{"shared target", scene{cameras: 2, sprites: 3}, 1, 2, 1},
		{"split targets", scene{cameras: 3, sprites: 2, split: true}, 3, 3, 3},
		{"no sprites", scene{cameras: 1}, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), config.Default(), tt.scene, &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			got := out.String()
			if n := strings.Count(got, "target "); n != tt.targets {
				t.Errorf("targets = %d, want %d\n%s", n, tt.targets, got)
			}
			if n := strings.Count(got, "pass main_pass_2d"); n != tt.passes {
				t.Errorf("main passes = %d, want %d\n%s", n, tt.passes, got)
			}
			if n := strings.Count(got, "clear("); n != tt.clears {
				t.Errorf("clearing passes = %d, want %d\n%s", n, tt.clears, got)
			}
		})
	}
}

func TestRunDrawsEverySprite(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), config.Default(), scene{cameras: 1, sprites: 5}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "pipelines=1 bind_groups=1 draws=5") {
		t.Errorf("output = %q, want one pipeline and bind group bind with 5 draws", out.String())
	}
}
