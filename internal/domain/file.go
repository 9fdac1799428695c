package domain

// FileUpload — один файл из пакетной загрузки.
type FileUpload struct {
	Name string
	Data []byte
}

func (u *FileUpload) Size() int64 {
	return int64(len(u.Data))
}
