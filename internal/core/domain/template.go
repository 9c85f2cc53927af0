package domain

type NotificationTemplate struct {
	ID              int64  `json:"id"`
	TemplateName    string `json:"templateName"`
	TemplateContent string `json:"templateContent"`
}

type TemplateInput struct {
	TemplateName    string `json:"templateName"`
	TemplateContent string `json:"templateContent"`
}

type TestMessage struct {
	TemplateID  int64  `json:"templateId"`
	PhoneNumber string `json:"phoneNumber"`
}

type Placeholder struct {
	Key         string
	Description string
}

// Placeholders are substituted by the notification sender on the server.
var Placeholders = []Placeholder{
	{Key: "[NamaPenerima]", Description: "Nama penerima paket"},
	{Key: "[NoResi]", Description: "Nomor resi paket"},
	{Key: "[NamaLokasi]", Description: "Nama lokasi apartemen"},
	{Key: "[TanggalTerima]", Description: "Tanggal paket diterima"},
	{Key: "[JamTerima]", Description: "Waktu paket diterima"},
	{Key: "[KodePengambilan]", Description: "Kode pengambilan paket"},
	{Key: "[HargaPaket]", Description: "Biaya penyimpanan paket"},
}
