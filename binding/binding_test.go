package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var data = map[string]any{
	"title": "QUOTATION",
	"company": map[string]any{
		"name":   "Acme",
		"slogan": "  ",
	},
	"items": []any{map[string]any{"price": "$10.00"}},
	"tags":  []string{"a", "b"},
}

func TestInterpolate(t *testing.T) {
	got := Interpolate("${title} for ${company.name}, ${missing.path}", data)
	if got != "QUOTATION for Acme, ${missing.path}" {
		t.Fatalf("插值结果错误: %q", got)
	}
	if got := Interpolate("${items[0].price} ${tags[1]}", data); got != "$10.00 b" {
		t.Fatalf("数组下标解析错误: %q", got)
	}
	if got := Interpolate("${title}", nil); got != "${title}" {
		t.Fatalf("data 为空时应保留原文: %q", got)
	}
}

func TestExpandDropsMissing(t *testing.T) {
	if got := Expand("${company.name}${company.fax}!", data); got != "Acme!" {
		t.Fatalf("缺失路径应替换为空: %q", got)
	}
	if got := Expand("${x}", nil); got != "" {
		t.Fatalf("nil data 应展开为空: %q", got)
	}
}

func TestTruthyAndPlaceholders(t *testing.T) {
	if !Truthy(data, "company.name") || Truthy(data, "company.slogan") || Truthy(data, "nope") {
		t.Fatalf("Truthy 判断错误")
	}
	if !Truthy(data, "items") {
		t.Fatalf("非空数组应为真")
	}
	got := Placeholders("${a} and ${ b.c } and ${}")
	if diff := cmp.Diff([]string{"a", "b.c"}, got); diff != "" {
		t.Fatalf("占位符列表 (-want +got):\n%s", diff)
	}
}
