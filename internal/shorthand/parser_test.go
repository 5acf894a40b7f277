package shorthand

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name:  "single item",
			input: "!MED AMITRIPTILINA 25MG NOITE",
			want: []Record{
				{Name: "AMITRIPTILINA", Dosage: "25MG", Posology: "NOITE"},
			},
		},
		{
			name:  "two items keep input order",
			input: "!MED AMITRIPTILINA 25MG NOITE; ALPRAZOLAM 2MG NOITE",
			want: []Record{
				{Name: "AMITRIPTILINA", Dosage: "25MG", Posology: "NOITE"},
				{Name: "ALPRAZOLAM", Dosage: "2MG", Posology: "NOITE"},
			},
		},
		{
			name:  "trailing separator and blank items",
			input: "!MED AMITRIPTILINA 25MG NOITE; ; ALPRAZOLAM 2MG NOITE;",
			want: []Record{
				{Name: "AMITRIPTILINA", Dosage: "25MG", Posology: "NOITE"},
				{Name: "ALPRAZOLAM", Dosage: "2MG", Posology: "NOITE"},
			},
		},
		{
			name:  "lowercase input is normalized",
			input: "!MED dipirona 500mg se dor",
			want: []Record{
				{Name: "DIPIRONA", Dosage: "500MG", Posology: "SE DOR"},
			},
		},
		{
			name:  "bracket comment",
			input: "!MED DIPIRONA 500MG [se febre] 6/6H",
			want: []Record{
				{Name: "DIPIRONA", Dosage: "500MG", Comment: strPtr("SE FEBRE"), Posology: "6/6H"},
			},
		},
		{
			name:  "blank bracket comment is absent",
			input: "!MED DIPIRONA 500MG [  ] 6/6H",
			want: []Record{
				{Name: "DIPIRONA", Dosage: "500MG", Posology: "6/6H"},
			},
		},
		{
			name:  "decimal dosage",
			input: "!MED CLONAZEPAM 0.5MG NOITE",
			want: []Record{
				{Name: "CLONAZEPAM", Dosage: "0.5MG", Posology: "NOITE"},
			},
		},
		{
			name:  "concentration unit wins over mass unit",
			input: "!MED DIPIRONA 500MG/ML 20 GOTAS SE DOR",
			want: []Record{
				{Name: "DIPIRONA", Dosage: "500MG/ML", Posology: "20 GOTAS SE DOR"},
			},
		},
		{
			name:  "microgram",
			input: "!MED VITAMINA B12 1000MCG 1X AO DIA",
			want: []Record{
				{Name: "VITAMINA B12", Dosage: "1000MCG", Posology: "1X AO DIA"},
			},
		},
		{
			name:  "percentage",
			input: "!MED HIDROCORTISONA 1% APLICAR 2X AO DIA",
			want: []Record{
				{Name: "HIDROCORTISONA", Dosage: "1%", Posology: "APLICAR 2X AO DIA"},
			},
		},
		{
			name:  "accented count unit",
			input: "!MED fluoxetina 2cápsulas manhã",
			want: []Record{
				{Name: "FLUOXETINA", Dosage: "2CÁPSULAS", Posology: "MANHÃ"},
			},
		},
		{
			name:  "international units and drops",
			input: "!MED VITAMINA D 50000UI SEMANAL; PARACETAMOL 40GOTAS SE FEBRE",
			want: []Record{
				{Name: "VITAMINA D", Dosage: "50000UI", Posology: "SEMANAL"},
				{Name: "PARACETAMOL", Dosage: "40GOTAS", Posology: "SE FEBRE"},
			},
		},
		{
			name:  "multi-word name",
			input: "!MED ACIDO ACETILSALICILICO 100MG APOS ALMOCO",
			want: []Record{
				{Name: "ACIDO ACETILSALICILICO", Dosage: "100MG", Posology: "APOS ALMOCO"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     error
		item     string
		wantText string
	}{
		{
			name:     "no marker",
			input:    "sem marcador",
			kind:     ErrMissingMarker,
			wantText: "Input must start with '!MED '",
		},
		{
			name:  "marker is case sensitive",
			input: "!med AMITRIPTILINA 25MG NOITE",
			kind:  ErrMissingMarker,
		},
		{
			name:  "marker without separator",
			input: "!MED",
			kind:  ErrMissingMarker,
		},
		{
			name:  "leading whitespace",
			input: "  !MED AMITRIPTILINA 25MG NOITE",
			kind:  ErrMissingMarker,
		},
		{
			name:     "only separators",
			input:    "!MED ;",
			kind:     ErrEmptyInput,
			wantText: "No valid medications found in input.",
		},
		{
			name:  "only marker",
			input: "!MED    ",
			kind:  ErrEmptyInput,
		},
		{
			name:     "item without dosage",
			input:    "!MED REMEDIO_SEM_DOSAGEM TOMAR",
			kind:     ErrUnparsableItem,
			item:     "REMEDIO_SEM_DOSAGEM TOMAR",
			wantText: "Could not parse medication item: REMEDIO_SEM_DOSAGEM TOMAR",
		},
		{
			name:  "dosage without unit",
			input: "!MED AMITRIPTILINA 25 NOITE",
			kind:  ErrUnparsableItem,
			item:  "AMITRIPTILINA 25 NOITE",
		},
		{
			name:  "dosage without name",
			input: "!MED 25MG NOITE",
			kind:  ErrUnparsableItem,
			item:  "25MG NOITE",
		},
		{
			name:  "unknown unit",
			input: "!MED INSULINA 10UNIDADES MANHA",
			kind:  ErrUnparsableItem,
			item:  "INSULINA 10UNIDADES MANHA",
		},
		{
			name:     "missing posology",
			input:    "!MED AMITRIPTILINA 25MG",
			kind:     ErrEmptyPosology,
			item:     "AMITRIPTILINA 25MG",
			wantText: "Posology cannot be empty in: AMITRIPTILINA 25MG",
		},
		{
			name:  "comment but no posology",
			input: "!MED AMITRIPTILINA 25MG [APOS O JANTAR]",
			kind:  ErrEmptyPosology,
			item:  "AMITRIPTILINA 25MG [APOS O JANTAR]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
			}
			if got != nil {
				t.Errorf("Parse(%q) returned records alongside error: %v", tt.input, got)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("Parse(%q) error = %v, want kind %v", tt.input, err, tt.kind)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
			}
			if perr.Item != tt.item {
				t.Errorf("Item = %q, want %q", perr.Item, tt.item)
			}
			if tt.wantText != "" && err.Error() != tt.wantText {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestParse_AllOrNothing(t *testing.T) {
	input := "!MED AMITRIPTILINA 25MG NOITE; LIXO; ALPRAZOLAM 2MG NOITE"

	got, err := Parse(input)
	if !errors.Is(err, ErrUnparsableItem) {
		t.Fatalf("error = %v, want ErrUnparsableItem", err)
	}
	if got != nil {
		t.Fatalf("got partial records %v", got)
	}
	var perr *ParseError
	if errors.As(err, &perr) && perr.Item != "LIXO" {
		t.Errorf("Item = %q, want LIXO", perr.Item)
	}
}

func TestParse_CaseNormalization(t *testing.T) {
	got, err := Parse("!MED Sertralina 50mg [após café] manhã; clonazepam 2mg noite")
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	for i, rec := range got {
		if rec.Dosage != upper(rec.Dosage) {
			t.Errorf("records[%d].Dosage = %q, not uppercase", i, rec.Dosage)
		}
		if rec.Posology != upper(rec.Posology) {
			t.Errorf("records[%d].Posology = %q, not uppercase", i, rec.Posology)
		}
		if rec.Name != upper(rec.Name) {
			t.Errorf("records[%d].Name = %q, not uppercase", i, rec.Name)
		}
	}
	if got[0].Comment == nil || *got[0].Comment != "APÓS CAFÉ" {
		t.Errorf("Comment = %v, want APÓS CAFÉ", got[0].Comment)
	}
}

func TestParse_Deterministic(t *testing.T) {
	input := "!MED AMITRIPTILINA 25MG NOITE; DIPIRONA 500MG [SE FEBRE] 6/6H"

	first, err1 := Parse(input)
	second, err2 := Parse(input)
	if err1 != nil || err2 != nil {
		t.Fatalf("errors = %v, %v", err1, err2)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Parse not deterministic (-first +second):\n%s", diff)
	}
}

func TestParse_Concurrent(t *testing.T) {
	input := "!MED ÁCIDO FÓLICO 5MG manhã; omeprazol 20mg [em jejum] manhã"
	want, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Parse(input)
			if err != nil {
				t.Errorf("Parse error = %v", err)
				return
			}
			if !cmp.Equal(want, got) {
				t.Errorf("concurrent Parse mismatch: %s", cmp.Diff(want, got))
			}
		}()
	}
	wg.Wait()
}

func TestNewResult(t *testing.T) {
	ok := NewResult(Parse("!MED AMITRIPTILINA 25MG NOITE"))
	if ok.Error != "" || len(ok.Medications) != 1 {
		t.Errorf("NewResult(success) = %+v", ok)
	}

	failed := NewResult(Parse("sem marcador"))
	if failed.Error == "" || failed.Medications != nil {
		t.Errorf("NewResult(failure) = %+v", failed)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"!MED AMITRIPTILINA 25MG NOITE", "ok"},
		{"sem marcador", "missing_marker"},
		{"!MED ;", "empty_input"},
		{"!MED REMEDIO TOMAR", "unparsable_item"},
		{"!MED AMITRIPTILINA 25MG", "empty_posology"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if got := KindOf(err); got != tt.want {
			t.Errorf("KindOf(Parse(%q)) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if got := KindOf(errors.New("boom")); got != "unknown" {
		t.Errorf("KindOf(foreign) = %q, want unknown", got)
	}
}
