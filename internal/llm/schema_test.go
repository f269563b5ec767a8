package llm

import "testing"

type sampleScores struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		labels  int
	}{
		{name: "plain", raw: `{"labels":["a","b"],"scores":[0.5,0.5]}`, labels: 2},
		{name: "fenced", raw: "```json\n{\"labels\":[\"a\"],\"scores\":[1]}\n```", labels: 1},
		{name: "wrapped", raw: "Resultado:\n{\"labels\":[\"x\",\"y\",\"z\"],\"scores\":[0.1,0.2,0.7]}\nfin", labels: 3},
		{name: "brace inside string", raw: `nota {"labels":["a}b"],"scores":[1]} extra`, labels: 1},
		{name: "no json", raw: "Lo siento, no puedo procesar...", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out sampleScores
			err := DecodeJSON(tt.raw, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(out.Labels) != tt.labels {
				t.Fatalf("expected %d labels, got %d", tt.labels, len(out.Labels))
			}
		})
	}
}

func TestGenerateSchemaIsStrict(t *testing.T) {
	schema := GenerateSchema[sampleScores]("Sample", "sample schema")
	if schema.Name != "Sample" {
		t.Fatalf("expected name Sample, got %s", schema.Name)
	}
	if schema.Body["additionalProperties"] != false {
		t.Fatalf("expected additionalProperties=false, got %v", schema.Body["additionalProperties"])
	}
	required, ok := schema.Body["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("expected 2 required fields, got %v", schema.Body["required"])
	}
}
