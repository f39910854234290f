package geostyle

import (
	"context"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var benchPredictRes *Results

func BenchmarkPredict(b *testing.B) {
	values, confs := generateExamplePanels(100, 156)

	f, err := New(&Options{Parallelization: 4})
	if err != nil {
		panic(err)
	}

	var res *Results
	b.ResetTimer()
	for b.Loop() {
		res, err = f.Predict(context.Background(), values, confs, 51, 52)
		if err != nil {
			panic(err)
		}
	}

	bytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile("benchmark_results.json", bytes, 0o644); err != nil {
		panic(err)
	}
}

func BenchmarkPredictSequential(b *testing.B) {
	values, confs := generateExamplePanels(20, 156)

	f, err := New(nil)
	if err != nil {
		panic(err)
	}

	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	for b.Loop() {
		benchPredictRes, err = f.Predict(context.Background(), values, confs, 51, 52)
		if err != nil {
			panic(err)
		}
	}
}
