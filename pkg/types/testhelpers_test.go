package types

import "time"

func mustParseTestTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05.000000", s)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			panic(err)
		}
	}
	return t.UTC()
}
