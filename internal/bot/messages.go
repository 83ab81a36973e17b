package bot

const (
	msgRegistered     = "ลงทะเบียนเรียบร้อยแล้ว ✅\n%s %s ห้อง %s"
	msgNotFound       = "ไม่พบรหัสนักเรียนนี้ในห้อง กรุณาตรวจสอบรหัสอีกครั้งครับ"
	msgUnlinked       = "ยังไม่ได้ลงทะเบียน กรุณาพิมพ์ \"ลงทะเบียน <รหัสนักเรียน>\" ก่อนนะครับ"
	msgStorage        = "มีปัญหาในการบันทึกข้อมูล ลองอีกครั้งหรือติดต่อครูครับ 🙏"
	msgBusy           = "ระบบกำลังประมวลผลข้อความก่อนหน้า ลองส่งใหม่อีกครั้งนะครับ"
	msgReasonUpdated  = "อัปเดตเหตุผล%sของวันนี้เรียบร้อยแล้ว ✅\nเหตุผล: %s"
	msgReasonCreated  = "บันทึก%sของวันนี้พร้อมเหตุผลเรียบร้อยแล้ว ✅\nเหตุผล: %s"
	msgInternalFailed = "เกิดข้อผิดพลาด ลองใหม่อีกครั้งนะครับ"
)
