package layout

import (
	"testing"

	"github.com/napolitain/solver-mutations/internal/models"
)

func BenchmarkOptimizeTwoIngredients(b *testing.B) {
	recipe := models.Recipe{"Nether Wart": 2, "Fire": 2}
	costs := map[string]float64{"Nether Wart": 4}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Optimize(recipe, 52, costs, DefaultBlocked()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimizeFourIngredients(b *testing.B) {
	recipe := models.Recipe{"Wheat": 1, "Carrot": 1, "Potato": 1, "Pumpkin": 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Optimize(recipe, 40, nil, DefaultBlocked()); err != nil {
			b.Fatal(err)
		}
	}
}
