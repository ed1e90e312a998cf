package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

func TestNormalizeYear(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"plain year", "2021", 2021},
		{"year in text", "发表于2019年", 2019},
		{"nineteenth hundreds", "1998", 1998},
		{"free form date", "March 5, 2020", 2020},
		{"iso date", "2022-03-05T10:00:00Z", 2022},
		{"garbage", "unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeYear(tt.raw); got != tt.want {
				t.Errorf("NormalizeYear(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "张三", "张三"},
		{"parenthetical stripped", "张三（北京大学）", "张三"},
		{"bracketed stripped", "李四[1]", "李四"},
		{"angle stripped", "Wang <wang@example.com>", "Wang"},
		{"trailing punctuation", "张三，", "张三"},
		{"whitespace collapsed", "John   Smith", "John Smith"},
		{"last first reordered", "Smith, John", "John Smith"},
		{"comma list with and kept", "Smith, John and Doe, Jane", "Smith, John and Doe, Jane"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAuthor(tt.raw); got != tt.want {
				t.Errorf("NormalizeAuthor(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeAuthors_DropsEmpty(t *testing.T) {
	got := NormalizeAuthors([]string{"张三", "（附属机构）", ""})

	want := []string{"张三"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeAuthors() = %v, want %v", got, want)
	}
}

func TestNormalizeJournal(t *testing.T) {
	longBody := "中国行政管理 " + strings.Repeat("正文", 50) + "参考文献" + strings.Repeat("正文", 10)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "经济研究", "经济研究"},
		{"trimmed punctuation", " 经济研究。", "经济研究"},
		{"whitespace collapsed", "Journal  of  Finance", "Journal of Finance"},
		{"body text truncated at marker", longBody, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeJournal(tt.raw)

			if len([]rune(got)) > 80 {
				t.Errorf("NormalizeJournal(%q) = %d runes, want <= 80", tt.raw, len([]rune(got)))
			}

			if tt.name != "body text truncated at marker" && got != tt.want {
				t.Errorf("NormalizeJournal(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma separated", "治理, 数字化,平台", []string{"治理", "数字化", "平台"}},
		{"cjk separators", "治理；数字化、平台", []string{"治理", "数字化", "平台"}},
		{"newlines", "治理\n数字化", []string{"治理", "数字化"}},
		{"empty parts dropped", "治理,,  ,数字化", []string{"治理", "数字化"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKeywords(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeKeywords(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPaperID_Stable(t *testing.T) {
	a := PaperID("数字治理研究", 2020, []string{"张三", "李四"})
	b := PaperID("数字治理研究", 2020, []string{"张三"})

	if a != b {
		t.Errorf("PaperID changed with non-first authors: %q vs %q", a, b)
	}

	if len(a) != 40 {
		t.Errorf("PaperID length = %d, want 40 hex chars", len(a))
	}

	if c := PaperID("数字治理研究", 2021, []string{"张三"}); c == a {
		t.Error("PaperID identical across different years")
	}
}

func TestNormalizePaper(t *testing.T) {
	p := domain.Paper{
		Title:    "  数字治理  研究 ",
		Authors:  []string{"张三（北大）"},
		Journal:  " 某学报。",
		Keywords: []string{"治理, 数字化", "平台"},
		Year:     2020,
	}

	got := NormalizePaper(p)

	if got.Title != "数字治理 研究" {
		t.Errorf("Title = %q", got.Title)
	}

	if !reflect.DeepEqual(got.Authors, []string{"张三"}) {
		t.Errorf("Authors = %v", got.Authors)
	}

	if got.Journal != "某学报" {
		t.Errorf("Journal = %q", got.Journal)
	}

	if !reflect.DeepEqual(got.Keywords, []string{"治理", "数字化", "平台"}) {
		t.Errorf("Keywords = %v", got.Keywords)
	}

	if got.ID == "" {
		t.Error("ID not assigned")
	}

	// Normalization is idempotent including the assigned ID.
	if again := NormalizePaper(got); !reflect.DeepEqual(again, got) {
		t.Errorf("NormalizePaper() not idempotent: %+v vs %+v", again, got)
	}
}
