package llm

import (
	"fmt"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

const systemInstructionTH = `คุณคือระบบแก้ไขข้อความจาก Speech-to-Text สำหรับภาษาไทย
หน้าที่: แก้ไขข้อผิดพลาดจากการถอดเสียง โดยรักษาความหมายเดิม

กฎ:
1. แก้ไขวรรณยุกต์และคำพ้องเสียงที่ผิด
2. ลบคำอุทาน (เอ่อ, อ่า, อ่านะ, ครับ/ค่ะ ที่ไม่จำเป็น) ออก
3. เพิ่มเครื่องหมายวรรคตอนที่เหมาะสม
4. รักษาคำภาษาอังกฤษและศัพท์เทคนิค ไม่แปลงเป็นภาษาไทย
5. ตอบเฉพาะข้อความที่แก้ไขแล้ว ไม่ต้องอธิบาย
6. ถ้าข้อความถูกต้องแล้ว ให้ตอบข้อความเดิมกลับมา`

const systemInstructionEN = `You are a Speech-to-Text post-correction assistant.
Task: Fix transcription errors while preserving the original meaning.

Rules:
1. Fix mis-transcribed words (homophones, wrong words that sound similar).
2. Remove filler words (um, uh, like, you know, etc.).
3. Add appropriate punctuation and capitalisation.
4. Preserve technical terms, proper nouns, and code snippets exactly.
5. Reply with ONLY the corrected text, no explanation.
6. If the text is already correct, return it unchanged.`

const fewShotTH = `
Examples:
Input: "เอ่อ ผม เสร็จ งาน แล้ว นะ ครับ จะ ส่ง ให้ พรุ่งนี้"
Output: "ผมเสร็จงานแล้ว จะส่งให้พรุ่งนี้"

Input: "ไฟล์ มัน ไม่ โหลด เพราะ network connection มัน drop"
Output: "ไฟล์ไม่โหลดเพราะ network connection drop"

Input: "อ่า ผู้ป่วย มี ความดัน สูง 140 ต่อ 90"
Output: "ผู้ป่วยมีความดันสูง 140/90"
`

const fewShotEN = `
Examples:
Input: "um I finished the report uh it should be ready by tomorrow"
Output: "I finished the report. It should be ready by tomorrow."

Input: "the file won't load because the network connection like dropped"
Output: "The file won't load because the network connection dropped."

Input: "the patient has hypertension one forty over ninety"
Output: "The patient has hypertension 140/90."
`

// PromptBuilder renders correction prompts for one language. Thai and English
// have dedicated instructions; anything else uses English.
type PromptBuilder struct {
	language string
}

func NewPromptBuilder(language string) PromptBuilder {
	return PromptBuilder{language: strings.ToLower(strings.TrimSpace(language))}
}

func (b PromptBuilder) system() string {
	if b.language == "th" {
		return systemInstructionTH
	}
	return systemInstructionEN
}

func (b PromptBuilder) examples() string {
	if b.language == "th" {
		return fewShotTH
	}
	return fewShotEN
}

// Chat returns the system and user messages for a chat completion API.
func (b PromptBuilder) Chat(raw string, snap rolling.Snapshot) (string, string) {
	return b.system(), b.user(raw, snap)
}

// Flat returns a single prompt for completion-style APIs.
func (b PromptBuilder) Flat(raw string, snap rolling.Snapshot) string {
	return b.system() + b.user(raw, snap)
}

func (b PromptBuilder) user(raw string, snap rolling.Snapshot) string {
	var sb strings.Builder
	sb.Grow(1024)
	sb.WriteString(b.examples())
	if ctx := BuildContext(snap); ctx != "" {
		sb.WriteByte('\n')
		sb.WriteString(ctx)
	}
	fmt.Fprintf(&sb, "\nOriginal STT output:\n%s\n\nCorrected:\n", raw)
	return sb.String()
}

// BuildContext renders the rolling context block. It returns "" when there is
// nothing worth sending.
func BuildContext(snap rolling.Snapshot) string {
	if snap.Empty() {
		return ""
	}
	var sb strings.Builder
	if snap.Domain != "" {
		fmt.Fprintf(&sb, "Domain: %s\n", snap.Domain)
	}
	if len(snap.Vocabulary) > 0 {
		sb.WriteString("User-specific terms:\n")
		for _, e := range snap.Vocabulary {
			fmt.Fprintf(&sb, "- %q → %q\n", e.Error, e.Correction)
		}
	}
	if len(snap.Sentences) > 0 {
		sb.WriteString("Previous context:\n")
		for _, s := range snap.Sentences {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return sb.String()
}

// cleanReply trims whitespace and one pair of wrapping double quotes, which
// models tend to copy from the examples.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
