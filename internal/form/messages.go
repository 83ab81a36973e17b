package form

import "attendbot/internal/model"

const (
	reasonPrompt     = "รับชื่อเรียบร้อยแล้ว ✅\n\nกรุณาพิมพ์สาเหตุที่ลา/เข้าสาย\nเช่น: ป่วยเป็นไข้, รถติด, ไปหาหมอ ฯลฯ"
	knownStudentHint = "\n\n(ระบบรู้ว่าคุณคือ %s %s อยู่แล้ว แต่กรอกชื่อไว้ให้ครูดูในรายงานได้)"
	confirmReply     = "บันทึก%sเรียบร้อยแล้ว ✅\n\nชื่อ: %s\nสาเหตุ: %s\nวันที่: %s เวลา: %s"
	recoveryReply    = "เกิดข้อผิดพลาดกับแบบฟอร์ม ลองกดปุ่มแจ้งลา/แจ้งเข้าสายใหม่อีกครั้งนะครับ"
)

func namePrompt(typ model.LeaveType) string {
	intro := "แบบฟอร์มลาเรียน"
	if typ == model.LeaveTypeLate {
		intro = "แบบฟอร์มแจ้งเข้าสาย"
	}
	return intro + "\n\nกรุณาพิมพ์ชื่อ-นามสกุลของคุณ\nเช่น: สมชาย ใจดี"
}

func typeText(typ model.LeaveType) string {
	if typ == model.LeaveTypeLate {
		return "แจ้งเข้าสาย"
	}
	return "ลาเรียน"
}
