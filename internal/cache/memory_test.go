package cache

import (
	"strings"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("feed body"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "feed body" {
		t.Errorf("unexpected value: %q", got)
	}
}

func TestMemoryCache_ReturnsCopy(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	body := []byte("abc")
	_ = c.Set("k", body, 0)

	body[0] = 'x'
	got, _ := c.Get("k")
	got[1] = 'y'

	again, _ := c.Get("k")
	if string(again) != "abc" {
		t.Errorf("cached value was mutated: %q", again)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	_ = c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive deleting a")
	}
}

func TestKey(t *testing.T) {
	k1 := Key("https://arxiv.org/rss/cs.AI")
	k2 := Key("https://openai.com/blog/rss.xml")

	if k1 == k2 {
		t.Error("expected distinct keys for distinct URLs")
	}
	if !strings.HasPrefix(k1, "strata:body:v1:") {
		t.Errorf("unexpected key prefix: %s", k1)
	}
	if Key("https://arxiv.org/rss/cs.AI") != k1 {
		t.Error("expected stable keys")
	}
}
