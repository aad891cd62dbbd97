package drive

// RootID is the well-known identifier of the drive root directory.
const RootID = "0"

// Node is a single entry in the remote tree, file or directory.
type Node struct {
	ID        string `json:"fid"`
	ParentID  string `json:"pdir_fid"`
	Name      string `json:"file_name"`
	Dir       bool   `json:"dir"`
	Size      int64  `json:"size"`
	UpdatedAt int64  `json:"updated_at"`
}

type envelope struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type listResponse struct {
	envelope
	Data struct {
		List []Node `json:"list"`
	} `json:"data"`
}

type moveRequest struct {
	ActionType  int      `json:"action_type"`
	ToPdirFid   string   `json:"to_pdir_fid"`
	Filelist    []string `json:"filelist"`
	ExcludeFids []string `json:"exclude_fids"`
}

type deleteRequest struct {
	ActionType  int      `json:"action_type"`
	Filelist    []string `json:"filelist"`
	ExcludeFids []string `json:"exclude_fids"`
}

type extractRequest struct {
	Fid          string `json:"fid"`
	Password     string `json:"pwd"`
	SelectMode   int    `json:"select_mode"`
	PathNoList   []int  `json:"path_no_list"`
	CurrPathNo   int    `json:"curr_path_no"`
	RememberPwd  bool   `json:"remember_pwd"`
	ConflictMode int    `json:"conflict_mode"`
	SuffixType   int    `json:"suffix_type"`
	ToPdirFid    string `json:"to_pdir_fid"`
}
