package domain

// FileCategory decides which conversion route an upload takes.
type FileCategory string

const (
	CategoryDocument FileCategory = "document"
	CategoryImage    FileCategory = "image"
	CategoryAudio    FileCategory = "audio"
	CategoryArchive  FileCategory = "archive"
)

type FileType struct {
	Extension string       `json:"extension"`
	Name      string       `json:"name"`
	MIMEType  string       `json:"mime_type"`
	Category  FileCategory `json:"category"`
}

var supportedFileTypes = []FileType{
	{Extension: "pdf", Name: "PDF Document", MIMEType: "application/pdf", Category: CategoryDocument},
	{Extension: "docx", Name: "Word Document", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Category: CategoryDocument},
	{Extension: "pptx", Name: "PowerPoint", MIMEType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", Category: CategoryDocument},
	{Extension: "xlsx", Name: "Excel Spreadsheet", MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Category: CategoryDocument},
	{Extension: "jpg", Name: "JPEG Image", MIMEType: "image/jpeg", Category: CategoryImage},
	{Extension: "jpeg", Name: "JPEG Image", MIMEType: "image/jpeg", Category: CategoryImage},
	{Extension: "png", Name: "PNG Image", MIMEType: "image/png", Category: CategoryImage},
	{Extension: "mp3", Name: "Audio File", MIMEType: "audio/mpeg", Category: CategoryAudio},
	{Extension: "wav", Name: "Audio File", MIMEType: "audio/wav", Category: CategoryAudio},
	{Extension: "html", Name: "HTML Document", MIMEType: "text/html", Category: CategoryDocument},
	{Extension: "csv", Name: "CSV File", MIMEType: "text/csv", Category: CategoryDocument},
	{Extension: "json", Name: "JSON File", MIMEType: "application/json", Category: CategoryDocument},
	{Extension: "xml", Name: "XML File", MIMEType: "application/xml", Category: CategoryDocument},
	{Extension: "zip", Name: "ZIP Archive", MIMEType: "application/zip", Category: CategoryArchive},
}

var fileTypesByExtension = func() map[string]FileType {
	out := make(map[string]FileType, len(supportedFileTypes))
	for _, ft := range supportedFileTypes {
		out[ft.Extension] = ft
	}
	return out
}()

// SupportedFileTypes returns the allow-list in display order.
func SupportedFileTypes() []FileType {
	out := make([]FileType, len(supportedFileTypes))
	copy(out, supportedFileTypes)
	return out
}

// LookupFileType expects a lower-cased extension without the leading dot.
func LookupFileType(ext string) (FileType, bool) {
	ft, ok := fileTypesByExtension[ext]
	return ft, ok
}
