package node

import "testing"

func FuzzNormalizeName(f *testing.F) {
	seed := []string{
		"",
		"01",
		"HKT-02 IPLC x2",
		"狮城01-IEPL-x2套餐到期",
		"🇨🇳 台湾 01",
		"深港IPLC 02",
		"🇯🇵 东京 03 x1.5",
		"a 1 2 3.4",
		"×××",
		"Hongkong BGP 10x",
	}
	for _, s := range seed {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		n, err := NormalizeName(raw)
		if err != nil {
			return
		}
		if n.Name == "" {
			t.Fatalf("empty name for %q", raw)
		}

		trailing, err := ordinalPattern.MatchString(n.Name)
		if err == nil && trailing {
			t.Fatalf("trailing ordinal left in %q (from %q)", n.Name, raw)
		}

		region, err := DetectRegion(n.Name)
		if err == nil && region != n.Region {
			t.Fatalf("region=%v, want=%v for %q", region, n.Region, n.Name)
		}
	})
}
