// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package display

const (
	Tool       = "kiln"
	BannerBlue = `
 oooo        o0o  oooo
 0ooo        o0o  0ooo
 ooo0  oo0o  ooo  ooo0
 ooo0o0oo    ooo  ooo0
 ooo0 0ooo   o0o  ooo0
 oooo   ooo  ooo  ooo0ooooo
`
	BannerGold = `
 oo0o  oooo
 00oo0 0oo0
 o0o0o0ooo0
 ooo 0o0ooo
 o0o   oo00
 oooo   ooo   vversion
`
)
