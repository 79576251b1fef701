package domain

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Eletrônicos", "eletronicos"},
		{"Serviços de Informática", "servicos-de-informatica"},
		{"Livros & Apostilas", "livros-apostilas"},
		{"  Móveis  ", "moveis"},
		{"---", ""},
		{"Aluguel (quarto)", "aluguel-quarto"},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCategoryIsRoot(t *testing.T) {
	root := &Category{ID: "c1"}
	if !root.IsRoot() {
		t.Fatal("category without parent should be root")
	}

	empty := ""
	alsoRoot := &Category{ID: "c2", ParentID: &empty}
	if !alsoRoot.IsRoot() {
		t.Fatal("empty parent id counts as root")
	}

	parent := "c1"
	child := &Category{ID: "c3", ParentID: &parent}
	if child.IsRoot() {
		t.Fatal("child category must not be root")
	}
}
