package core

// Wire names exposed by the mCaptcha cache module. They are case-sensitive.
const (
	CmdGet           = "MCAPTCHA_CACHE.GET"
	CmdAddVisitor    = "MCAPTCHA_CACHE.ADD_VISITOR"
	CmdDeleteCaptcha = "MCAPTCHA_CACHE.DELETE_CAPTCHA"
	CmdAddCaptcha    = "MCAPTCHA_CACHE.ADD_CAPTCHA"
	CmdCaptchaExists = "MCAPTCHA_CACHE.CAPTCHA_EXISTS"

	// ModuleName is the name the module registers in MODULE LIST.
	// The misspelling is the module's own.
	ModuleName = "mcaptcha_cahce"
)

// Catalog names the module and the commands it must provide.
// Values are copied, so a Catalog held by a connection never changes.
type Catalog struct {
	Module        string
	Get           string
	AddVisitor    string
	DeleteCaptcha string
	AddCaptcha    string
	CaptchaExists string
}

// DefaultCatalog returns the catalog for the released cache module
func DefaultCatalog() Catalog {
	return Catalog{
		Module:        ModuleName,
		Get:           CmdGet,
		AddVisitor:    CmdAddVisitor,
		DeleteCaptcha: CmdDeleteCaptcha,
		AddCaptcha:    CmdAddCaptcha,
		CaptchaExists: CmdCaptchaExists,
	}
}

// Commands lists every command in the order they are verified
func (c Catalog) Commands() []string {
	return []string{c.AddVisitor, c.AddCaptcha, c.DeleteCaptcha, c.CaptchaExists, c.Get}
}
