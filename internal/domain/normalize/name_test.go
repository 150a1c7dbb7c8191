package normalize

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/ersonp/provpack/internal/domain/entities"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  entities.PersonName
	}{
		{
			name:  "maiden name pattern",
			input: "Helena Elizabeth (gebore Meyer)",
			want: entities.PersonName{
				Primary: "Helena Elizabeth Meyer",
				Display: "Helena Elizabeth Meyer",
				SortKey: "Meyer, Helena Elizabeth",
			},
		},
		{
			name:  "maiden keyword is case-insensitive",
			input: "Anna Helena Meyer (Gebore Erasmus)",
			want: entities.PersonName{
				Primary: "Anna Helena Meyer Erasmus",
				Display: "Anna Helena Meyer Erasmus",
				SortKey: "Erasmus, Anna Helena Meyer",
			},
		},
		{
			name:  "two-word particle",
			input: "Esaias van der Merwe",
			want: entities.PersonName{
				Primary:  "Esaias van der Merwe",
				Particle: "van der",
				Display:  "Esaias van der Merwe",
				SortKey:  "Merwe, van der, Esaias",
			},
		},
		{
			name:  "van den beats van",
			input: "Pieter Jacobus van den Berg",
			want: entities.PersonName{
				Primary:  "Pieter Jacobus van den Berg",
				Particle: "van den",
				Display:  "Pieter Jacobus van den Berg",
				SortKey:  "Berg, van den, Pieter Jacobus",
			},
		},
		{
			name:  "single-word particle",
			input: "Jacques du Plessis",
			want: entities.PersonName{
				Primary:  "Jacques du Plessis",
				Particle: "du",
				Display:  "Jacques du Plessis",
				SortKey:  "Plessis, du, Jacques",
			},
		},
		{
			name:  "capitalized particle keeps display casing",
			input: "Maria De Villiers",
			want: entities.PersonName{
				Primary:  "Maria De Villiers",
				Particle: "de",
				Display:  "Maria De Villiers",
				SortKey:  "Villiers, de, Maria",
			},
		},
		{
			name:  "particle not before surname is ignored",
			input: "Van Wyk Johannes Smit",
			want: entities.PersonName{
				Primary: "Van Wyk Johannes Smit",
				Display: "Van Wyk Johannes Smit",
				SortKey: "Smit, Van Wyk Johannes",
			},
		},
		{
			name:  "two tokens never take a particle",
			input: "de Villiers",
			want: entities.PersonName{
				Primary: "de Villiers",
				Display: "de Villiers",
				SortKey: "Villiers, de",
			},
		},
		{
			name:  "default surname last",
			input: "  Lourens Abraham Meyer ",
			want: entities.PersonName{
				Primary: "Lourens Abraham Meyer",
				Display: "Lourens Abraham Meyer",
				SortKey: "Meyer, Lourens Abraham",
			},
		},
		{
			name:  "single token",
			input: " Meyer ",
			want:  entities.PersonName{Primary: "Meyer", Display: "Meyer", SortKey: "Meyer"},
		},
		{
			name:  "empty",
			input: "   ",
			want:  entities.PersonName{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestName_DecomposedInputIsComposed(t *testing.T) {
	// "e" followed by a combining circumflex
	got := Name("Andre\u0302 Smit")
	assert.Equal(t, "Andr\u00ea Smit", got.Display)
	assert.Equal(t, "Smit, Andr\u00ea", got.SortKey)
}

func TestName_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	givenNames := gen.OneConstOf("Esaias", "Helena", "Anna", "Lourens", "Daniel", "Johannes", "Maria", "Pieter")
	surnames := gen.OneConstOf("Meyer", "Erasmus", "Merwe", "Plessis", "Booman", "Smit", "Villiers")
	particleGen := gen.OneConstOf("", "van der", "van den", "van", "de", "du", "le", "la", "Van Der")

	properties.Property("Name(Name(x).Display) == Name(x)", prop.ForAll(
		func(first, second, particle, surname string, useMaiden bool) bool {
			given := first + " " + second
			var raw string
			switch {
			case useMaiden:
				raw = given + " (gebore " + surname + ")"
			case particle != "":
				raw = given + " " + particle + " " + surname
			default:
				raw = given + " " + surname
			}

			once := Name(raw)
			twice := Name(once.Display)
			return once == twice
		},
		givenNames,
		givenNames,
		particleGen,
		surnames,
		gen.Bool(),
	))

	properties.Property("sort key starts with the surname", prop.ForAll(
		func(first, particle, surname string) bool {
			raw := strings.TrimSpace(first + " " + particle + " " + surname)
			return strings.HasPrefix(Name(raw).SortKey, surname+", ")
		},
		givenNames,
		particleGen,
		surnames,
	))

	properties.TestingRun(t)
}
