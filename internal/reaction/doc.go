// Package reaction routes reaction events to the poll tally, the emoji
// submission vote and the reaction-role menus.
package reaction
