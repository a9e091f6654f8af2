package models

const (
	NameMaxLength = 80
	URLMaxLength  = 120
)

// ModRecord is the root of the editable tree. ID is the archive's row id and is
// nil for records the server has not seen yet.
type ModRecord struct {
	ID      *int64          `json:"id,omitempty"`
	Name    string          `json:"name" validate:"required,max=80"`
	Desc    string          `json:"desc"`
	Website string          `json:"website" validate:"max=120"`
	Authors []string        `json:"authors"`
	ModVsns []VersionRecord `json:"mod_vsns" validate:"dive"`
}

type VersionRecord struct {
	ID       *int64       `json:"id,omitempty"`
	Name     string       `json:"name" validate:"required,max=80"`
	Desc     string       `json:"desc"`
	URL      string       `json:"url" validate:"max=120"`
	GameVsns []string     `json:"game_vsns"`
	Files    []FileRecord `json:"files" validate:"min=1,dive"`
}

type FileRecord struct {
	ID          *int64 `json:"id,omitempty"`
	Desc        string `json:"desc"`
	PageURL     string `json:"page_url" validate:"max=120"`
	RedirectURL string `json:"redirect_url" validate:"max=120"`
	DirectURL   string `json:"direct_url" validate:"max=120"`
}

func BlankFile() FileRecord {
	return FileRecord{}
}

// BlankVersion is what the editor appends: empty scalars, no tags and exactly
// one blank file.
func BlankVersion() VersionRecord {
	return VersionRecord{
		GameVsns: []string{},
		Files:    []FileRecord{BlankFile()},
	}
}

// Clone returns a deep copy so callers can hand the record to another goroutine.
// Every list of the copy is non-nil.
func (record ModRecord) Clone() ModRecord {
	out := record
	out.ID = cloneID(record.ID)
	out.Authors = cloneStrings(record.Authors)
	out.ModVsns = make([]VersionRecord, len(record.ModVsns))
	for i, version := range record.ModVsns {
		out.ModVsns[i] = version.Clone()
	}
	return out
}

func (version VersionRecord) Clone() VersionRecord {
	out := version
	out.ID = cloneID(version.ID)
	out.GameVsns = cloneStrings(version.GameVsns)
	out.Files = make([]FileRecord, len(version.Files))
	for i, file := range version.Files {
		file.ID = cloneID(file.ID)
		out.Files[i] = file
	}
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	value := *id
	return &value
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
