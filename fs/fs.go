package appfs

import "embed"

// FS holds the SQL migrations and email templates shipped with the binary.
//go:embed migrations templates templates/email/_base.txt
var FS embed.FS
