package neo4j

import (
	"testing"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func TestPersonParamsSkipsUnnamed(t *testing.T) {
	people := []domain.Person{
		{Name: "Jane Smith", Role: "Judge", Confidence: 0.9},
		{Name: "", Role: "Witness"},
	}
	params := personParams(people)
	if len(params) != 1 {
		t.Fatalf("params = %v", params)
	}
	if params[0]["name"] != "Jane Smith" || params[0]["role"] != "Judge" {
		t.Fatalf("params = %v", params[0])
	}
}

func TestCleanNamesDropsBlanks(t *testing.T) {
	names := cleanNames([]string{"Acme Corp", "", "District Court"})
	if len(names) != 2 || names[1] != "District Court" {
		t.Fatalf("names = %v", names)
	}
}
