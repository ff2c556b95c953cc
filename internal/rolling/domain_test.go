package rolling

import "testing"

func TestDetectDomain(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want string
	}{
		{"medical", "ผู้ป่วยมีความดันสูง วินิจฉัยโดยแพทย์", "Medical"},
		{"legal", "ทนายความยื่นคำพิพากษาต่อศาล", "Legal"},
		{"technical english", "the server has a bug after deploy", "Technical"},
		{"casual needs three", "ไปกินข้าวกับเพื่อน", ""},
		{"casual", "ไปกินข้าวกับเพื่อน คุยกันสนุกมาก", "Casual"},
		{"single keyword", "ผู้ป่วย", ""},
		{"empty", "", ""},
		{"highest count wins", "API bug code server ยา อาการ", "Technical"},
		{"tie goes to earlier domain", "ยา อาการ code bug", "Medical"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectDomain(tc.text); got != tc.want {
				t.Fatalf("DetectDomain(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
