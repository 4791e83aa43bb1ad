package util

import "fmt"

const (
	ActiveRoomPrefix = "active_room"
	RoomPrefix       = "room"
)

func GetRoomKey(room string) string {
	return fmt.Sprintf("%v:%v", RoomPrefix, room)
}

func GetActiveRoomKey(code string) string {
	return fmt.Sprintf("%v:%v", ActiveRoomPrefix, code)
}
