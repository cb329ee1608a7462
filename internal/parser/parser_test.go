package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DarkFirexs/Parser/internal/model"
)

func TestParse_FullDescriptor(t *testing.T) {
	line := "vless://UID1@host.example:443?security=reality&sni=yandex.ru&type=grpc&flow=xtls-rprx-vision#tag"
	res, ok := Parse(line)
	if !ok {
		t.Fatalf("expected descriptor to parse")
	}
	want := model.Descriptor{
		Protocol:   "vless",
		Identity:   "UID1",
		Host:       "host.example",
		Port:       443,
		ServerName: "yandex.ru",
		Security:   "reality",
		Transport:  "grpc",
		Flow:       "xtls-rprx-vision",
		Raw:        line,
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("got %#v want %#v", res, want)
	}
}

func TestParse_OtherSchemes(t *testing.T) {
	for _, line := range []string{
		"",
		"vmess://eyJhZGQiOiIxLjIuMy40In0=",
		"trojan://pass@1.2.3.4:443?sni=ya.ru",
		"ss://YWVzLTI1Ni1nY206cGFzcw@1.2.3.4:8388",
		" vless://UID@1.2.3.4:443",
		"VLESS://UID@1.2.3.4:443",
	} {
		if _, ok := Parse(line); ok {
			t.Errorf("Parse(%q) should not be applicable", line)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, line := range []string{
		"vless://",
		"vless://no-at-sign:443",
		"vless://@1.2.3.4:443",
		"vless://UID@1.2.3.4",
		"vless://UID@:443",
		"vless://UID@1.2.3.4:port",
		"vless://UID@1.2.3.4:0",
		"vless://UID@1.2.3.4:70000",
		"vless://UID@[2001:db8::1]:443",
		"vless://UID@1.2.3.4#frag:443",
		"vless://a@b@h.example:443",
	} {
		if d, ok := Parse(line); ok {
			t.Errorf("Parse(%q) = %#v, want not ok", line, d)
		}
	}
}

func TestParse_Defaults(t *testing.T) {
	res, ok := Parse("vless://UID@1.2.3.4:8443")
	if !ok {
		t.Fatalf("expected descriptor to parse")
	}
	if res.Transport != model.DefaultTransport {
		t.Fatalf("transport = %q, want %q", res.Transport, model.DefaultTransport)
	}
	if res.ServerName != "" || res.Security != "" || res.Flow != "" {
		t.Fatalf("optional fields should be empty: %#v", res)
	}
}

func TestParse_ParamAfterFragment(t *testing.T) {
	// identity/host/port ignore the fragment, parameters do not
	res, ok := Parse("vless://UID@1.2.3.4:443?type=ws#name&sni=vk.com")
	if !ok {
		t.Fatalf("expected descriptor to parse")
	}
	if res.Host != "1.2.3.4" || res.Port != 443 {
		t.Fatalf("bad host/port: %#v", res)
	}
	if res.ServerName != "vk.com" {
		t.Fatalf("sni = %q, want vk.com", res.ServerName)
	}
}

func TestParse_QueryStrippedFromHostPort(t *testing.T) {
	res, ok := Parse("vless://UID@edge.example.org:2053?security=reality")
	if !ok {
		t.Fatalf("expected descriptor to parse")
	}
	if res.Host != "edge.example.org" || res.Port != 2053 {
		t.Fatalf("bad host/port: %#v", res)
	}
}

func TestParse_Pure(t *testing.T) {
	line := "vless://a-b-c@10.0.0.1:443?security=reality&sni=ok.ru&type=ws#x"
	first, ok1 := Parse(line)
	second, ok2 := Parse(line)
	if !ok1 || !ok2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("re-parse differs: %#v vs %#v", first, second)
	}
}

func TestParam(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{"equals", "vless://u@h:1?sni=ya.ru&type=ws", "sni", "ya.ru"},
		{"case insensitive key", "vless://u@h:1?SNI=ya.ru", "sni", "ya.ru"},
		{"value keeps case", "vless://u@h:1?security=Reality", "security", "Reality"},
		{"colon form", "vless://u@h:1#sni:mail.ru", "sni", "mail.ru"},
		{"equals wins over colon", "vless://u@h:1?x=1&sni:b.ru&sni=a.ru", "sni", "a.ru"},
		{"percent decoded", "vless://u@h:1?flow=xtls%2Drprx%2Dvision", "flow", "xtls-rprx-vision"},
		{"invalid escape kept", "vless://u@h:1?sni=bad%zz", "sni", "bad%zz"},
		{"stops at whitespace", "vless://u@h:1?type=grpc more", "type", "grpc"},
		{"inside another key", "vless://u@h:1?headerType=none", "type", "none"},
		{"partial decode", "vless://u@h:1?sni=ya%2Eru%zz", "sni", "ya.ru%zz"},
		{"truncated escape", "vless://u@h:1?sni=ya.ru%2", "sni", "ya.ru%2"},
		{"invalid utf-8 replaced", "vless://u@h:1?sni=a%FFb", "sni", "a\uFFFDb"},
		{"multibyte decoded", "vless://u@h:1?sni=%D1%8F.ru", "sni", "я.ru"},
		{"missing", "vless://u@h:1?security=reality", "flow", ""},
		{"empty value", "vless://u@h:1?sni=&type=ws", "sni", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Param(tt.raw, tt.key); got != tt.want {
				t.Fatalf("Param(%q, %q) = %q, want %q", tt.raw, tt.key, got, tt.want)
			}
		})
	}
}

func TestParse_ColonParamsInFragment(t *testing.T) {
	res, ok := Parse("vless://u@h.example:443#RU|sni:ya.ru|security:reality")
	if !ok {
		t.Fatalf("expected descriptor to parse")
	}
	if res.Security != "reality" {
		t.Fatalf("security = %q, want reality", res.Security)
	}
	if res.ServerName != "ya.ru|security:reality" {
		t.Fatalf("sni = %q", res.ServerName)
	}
	if res.Host != "h.example" || res.Port != 443 || res.Transport != model.DefaultTransport {
		t.Fatalf("bad descriptor: %#v", res)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	content := "# comment\n\nvless://A@1.1.1.1:443?sni=ya.ru\nnot a descriptor\n  vless://B@2.2.2.2:8443  \nvless://broken\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []string{"vless://A@1.1.1.1:443?sni=ya.ru", "vless://B@2.2.2.2:8443"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
