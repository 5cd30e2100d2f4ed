package message

import "github.com/example/whatsapp-api-go/internal/util"

// Provider character limits.
const (
	maxTextBodyLength     = 4096
	maxCaptionLength      = 1024
	maxInteractiveBody    = 1024
	maxHeaderTextLength   = 60
	maxFooterLength       = 60
	maxButtonTitleLength  = 20
	maxListButtonLength   = 20
	maxRowTitleLength     = 23
	maxRowDescription     = 72
	maxSectionTitleLength = 24
	maxReplyButtons       = 3
	defaultFlowVersion    = 3
	maxFlowCTALength      = 20
	maxTemplateNameLength = 512
	maxProductsPerList    = 30
)

func runeLen(s string) int { return util.RuneLen(s) }
