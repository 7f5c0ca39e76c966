//go:build !sspl

package mutagen

// mutagenSSPLEnhancementsHeader is an additional message to include in the
// license text if using SSPL-licensed enhancements.
const mutagenSSPLEnhancementsHeader = ``

// licenseTextSSPL is the Server Side Public License content to include in the
// license text if using SSPL-licensed enhancements.
const licenseTextSSPL = ``
