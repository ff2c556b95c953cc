package rolling

import "strings"

type domainRule struct {
	name      string
	keywords  []string
	threshold int
}

// Rules are checked in priority order; the earlier rule wins a tie.
var domainRules = []domainRule{
	{
		name: "Medical",
		keywords: []string{
			"ผู้ป่วย", "ยา", "อาการ", "โรค", "แพทย์", "วินิจฉัย",
			"โรงพยาบาล", "เบาหวาน", "ความดัน", "การรักษา",
		},
		threshold: 2,
	},
	{
		name: "Legal",
		keywords: []string{
			"กฎหมาย", "สัญญา", "ศาล", "จำเลย", "โจทก์", "คดี",
			"ข้อพิพาท", "พระราชบัญญัติ", "ทนายความ", "คำพิพากษา",
		},
		threshold: 2,
	},
	{
		name: "Technical",
		keywords: []string{
			"code", "function", "server", "deploy", "database", "API", "bug",
			"ซอฟต์แวร์", "ระบบ", "โปรแกรม", "คอมพิวเตอร์",
		},
		threshold: 2,
	},
	{
		name: "Casual",
		keywords: []string{
			"คุย", "เล่า", "เพื่อน", "กิน", "ไปเที่ยว", "สนุก", "หัวเราะ", "นัด",
		},
		threshold: 3,
	},
}

// DetectDomain returns the label of the domain whose keywords appear most
// often in text, or "" when no domain reaches its threshold.
func DetectDomain(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	best, bestCount := "", 0
	for _, rule := range domainRules {
		count := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				count++
			}
		}
		if count >= rule.threshold && count > bestCount {
			best, bestCount = rule.name, count
		}
	}
	return best
}
