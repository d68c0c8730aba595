package stream

// Block introducer bytes, per the GIF grammar.
const (
	introExtension       = 0x21
	introImageDescriptor = 0x2C
	introTrailer         = 0x3B
)

// Extension label bytes, following a 0x21 introducer.
const (
	labelGraphicControl = 0xF9
	labelComment        = 0xFE
	labelPlainText      = 0x01
	labelApplication    = 0xFF
)

const (
	signatureGIF87a = "GIF87a"
	signatureGIF89a = "GIF89a"
)

// packed-byte bit layouts, per the Logical Screen Descriptor and Image
// Descriptor fields.
const (
	packedGlobalColorTableFlag = 0x80
	packedColorResolutionMask  = 0x70
	packedSortFlag             = 0x08
	packedColorTableSizeMask   = 0x07

	packedLocalColorTableFlag = 0x80
	packedInterlaceFlag       = 0x40
	packedLocalSortFlag       = 0x20

	gceDisposalMask    = 0x1C
	gceUserInputFlag   = 0x02
	gceTransparentFlag = 0x01
)
