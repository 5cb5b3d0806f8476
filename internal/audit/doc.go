// Package audit keeps the edit, delete, nickname and invite histories of
// guild members and announces changes to a guild's logs channel.
package audit
