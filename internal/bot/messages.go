package bot

import (
	"fmt"
	"html"
	"strings"

	"kinobot/internal/models"
)

// Reply keyboard labels
const (
	BtnAddMovie    = "🎬 Kino qo'shish"
	BtnDeleteMovie = "🗑 Kino o'chirish"
	BtnAddChannel  = "📢 Kanal qo'shish"
	BtnDelChannel  = "❌ Kanal o'chirish"
	BtnBroadcast   = "✉️ Hammaga xabar"
	BtnStats       = "📊 Statistika"
	BtnUsers       = "👥 Foydalanuvchilar"
	BtnCVList      = "📄 Rezyumelar"
	BtnCreateCV    = "📝 Rezyume yaratish"
	BtnSendPhone   = "📱 Raqamni yuborish"
	BtnCancel      = "❌ Bekor qilish"
	BtnBack        = "⬅️ Orqaga"
)

// Callback data
const (
	CallbackCheckSub      = "check_sub"
	CallbackDeleteChannel = "del_ch:"
)

const (
	MsgAdminWelcome   = "Admin paneliga xush kelibsiz!"
	MsgAdminOnly      = "⛔ Bu bo'lim faqat adminlar uchun."
	MsgError          = "Xatolik yuz berdi. Keyinroq urinib ko'ring."
	MsgCancelled      = "Bekor qilindi."
	MsgMainMenu       = "Asosiy menyu."
	MsgStartFirst     = "Iltimos, avval /start buyrug'ini bosing!"
	MsgOwnContact     = "Iltimos, o'zingizni telefon raqamingizni yuboring!"
	MsgRegistered     = "✅ Muvaffaqiyatli ro'yxatdan o'tdingiz!"
	MsgSubscribe      = "Botdan foydalanish uchun kanallarga obuna bo'ling:"
	MsgNotSubscribed  = "Hali hamma kanallarga obuna bo'lmadingiz!"
	MsgNoUsers        = "Foydalanuvchilar topilmadi."
	MsgNoChannels     = "Kanallar yo'q."
	MsgPickChannel    = "O'chirmoqchi bo'lgan kanalingizni tanlang:"
	MsgChannelDeleted = "Kanal o'chirildi"
	MsgChannelMissing = "Kanal topilmadi"

	// add_channel flow
	MsgChannelIDPrompt  = "Kanal ID sini yuboring (masalan: -100123456789):"
	MsgChannelIDInvalid = "❌ Kanal ID noto'g'ri. Masalan: -100123456789 yoki @kanal"
	MsgChannelURLPrompt = "Kanal linkini yuboring (masalan: https://t.me/kanal_link):"
	MsgChannelURLBad    = "❌ Link noto'g'ri. Masalan: https://t.me/kanal_link"
	MsgChannelAdded     = "✅ Kanal majburiy obunaga qo'shildi!"

	// broadcast flow
	MsgBroadcastPrompt = "Xabar matnini yuboring (rasm yoki video ham mumkin):"
	MsgNoRecipients    = "📭 Foydalanuvchilar yo'q."

	// kinobot
	MsgMovieStartHint   = "Kino kodini yuboring."
	MsgMovieSubscribed  = "✅ Obuna tasdiqlandi. Kino kodini yuborishingiz mumkin."
	MsgMovieNotFound    = "Kechirasiz, bunday kod yoki nomli kino topilmadi."
	MsgMovieCodePrompt  = "Kino kodini kiriting:"
	MsgDigitsOnly       = "Faqat raqam kiriting!"
	MsgMovieNamePrompt  = "Kino nomini kiriting:"
	MsgMovieLangPrompt  = "Kino tilini kiriting:"
	MsgMovieQualPrompt  = "Sifatini kiriting:"
	MsgMovieGenrePrompt = "Janrini kiriting:"
	MsgMovieDescPrompt  = "Tavsifini kiriting:"
	MsgMovieFilePrompt  = "Video faylni yuboring:"
	MsgMovieFileMissing = "Iltimos, video fayl yuboring!"
	MsgMovieSaved       = "✅ Kino muvaffaqiyatli saqlandi!"
	MsgMovieDelPrompt   = "O'chirmoqchi bo'lgan kino kodini yuboring:"
	MsgMovieDeleted     = "✅ Kino o'chirildi!"
	MsgMovieDelMissing  = "❌ Bu kod bilan kino topilmadi."

	// cvbot
	MsgCVStartHint     = "Rezyume yaratish uchun «" + BtnCreateCV + "» tugmasini bosing."
	MsgCVSubscribed    = "✅ Obuna tasdiqlandi. Rezyume yaratishingiz mumkin."
	MsgCVNamePrompt    = "Ism va familiyangizni kiriting:"
	MsgCVBirthPrompt   = "Tug'ilgan sanangizni kiriting (masalan: 01.01.2000):"
	MsgCVPosPrompt     = "Qaysi lavozimga da'vogarsiz?"
	MsgCVExpPrompt     = "Ish tajribangiz haqida yozing:"
	MsgCVSkillsPrompt  = "Ko'nikmalaringizni yozing (vergul bilan):"
	MsgCVEmailPrompt   = "Email manzilingizni kiriting:"
	MsgCVEmailInvalid  = "❌ Email noto'g'ri. Masalan: ism@example.com"
	MsgCVReady         = "✅ Rezyumeingiz tayyor!"
	MsgCVNotFound      = "❌ Bunday rezyume topilmadi."
	MsgNoCVs           = "Hali rezyume yo'q."
	MsgCVLookupHint    = "Rezyume raqami yoki ismini yuboring."
)

func FormatGreeting(fullName string) string {
	return fmt.Sprintf("Assalomu alaykum, %s!\nBotdan foydalanish uchun telefon raqamingizni yuboring:", fullName)
}

// FormatMovieCaption shows views as counted after this request
func FormatMovieCaption(m *models.Movie) string {
	return fmt.Sprintf("🎬Nomi %s\n👁 Korishlar %d marta ko'rildi\n🔢 Kodi:  %d", m.Name, m.Views+1, m.Code)
}

func FormatCVCaption(cv *models.CV) string {
	return fmt.Sprintf("📄 Rezyume #%d\n👤 %s\n⬇️ Yuklab olishlar: %d", cv.ID, cv.FullName, cv.Downloads+1)
}

func FormatBroadcastProgress(sent, total int) string {
	return fmt.Sprintf("Xabar yuborilmoqda: %d/%d", sent, total)
}

func FormatBroadcastDone(sent int) string {
	return fmt.Sprintf("✅ Xabar %d ta foydalanuvchiga yuborildi!", sent)
}

// StatsReport is the data behind the statistics screen
type StatsReport struct {
	Users       models.UserStats
	TopLabel    string // "Top kino" / "Top rezyume"
	Top         *models.ContentStat
	CountUnit   string // "ko'rish" / "yuklab olish"
	EmptyText   string
	RecentViews *int64 // nil when analytics is disabled
}

func FormatStats(r StatsReport) string {
	top := r.EmptyText
	if r.Top != nil {
		top = fmt.Sprintf("«%s» (%d ta %s)", html.EscapeString(r.Top.Name), r.Top.Count, r.CountUnit)
	}

	text := fmt.Sprintf("📈 <b>Bot Statistikasi:</b>\n\n👥 Jami: %d\n👤 Bugun: %d\n📅 Oxirgi 7 kun: %d\n🏆 %s: %s",
		r.Users.Total, r.Users.Today, r.Users.LastWeek, r.TopLabel, top)
	if r.RecentViews != nil {
		text += fmt.Sprintf("\n👁 Oxirgi 7 kunda so'rovlar: %d", *r.RecentViews)
	}
	return text
}

func FormatUserList(users []models.User) string {
	var b strings.Builder
	b.WriteString("📂 <b>Foydalanuvchilar ro'yxati (oxirgi 50 ta):</b>\n\n")
	for _, u := range users {
		link := "yo'q"
		if u.Username != "" {
			link = "@" + html.EscapeString(u.Username)
		}
		fmt.Fprintf(&b, "👤 <b>Ism:</b> %s\n🆔 <b>ID:</b> <code>%d</code>\n🔗 <b>User:</b> %s\n📞 <b>Tel:</b> %s\n────────────────────\n",
			html.EscapeString(u.FullName), u.ID, link, html.EscapeString(u.Phone))
	}
	return b.String()
}

func FormatCVList(cvs []models.CV) string {
	var b strings.Builder
	b.WriteString("📄 <b>Oxirgi rezyumelar:</b>\n\n")
	for _, cv := range cvs {
		fmt.Fprintf(&b, "#%d <b>%s</b> - %s (⬇️ %d)\n",
			cv.ID, html.EscapeString(cv.FullName), html.EscapeString(cv.Position), cv.Downloads)
	}
	b.WriteString("\n" + MsgCVLookupHint)
	return b.String()
}
