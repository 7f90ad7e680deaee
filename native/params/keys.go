package params

const (
	// ParamsKeyPauses stores the module pause toggles set through the admin API.
	ParamsKeyPauses = "passmint/system/pauses"
)
