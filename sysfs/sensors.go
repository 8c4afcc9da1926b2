package sysfs

import (
	"path/filepath"
	"strconv"
)

// HwmonInput is the path of hwmonN/tempM_input.
func HwmonInput(root string, device, channel int) string {
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, "class", "hwmon", "hwmon"+strconv.Itoa(device), "temp"+strconv.Itoa(channel)+"_input")
}

// IIODevice is the directory of iio:deviceN.
func IIODevice(root string, device int) string {
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, "bus", "iio", "devices", "iio:device"+strconv.Itoa(device))
}

// ReadMilli reads an attribute holding thousandths and scales it to units.
func ReadMilli(path string) (float64, error) {
	v, err := ReadInt(path)
	if err != nil {
		return 0, err
	}
	return float64(v) / 1000, nil
}
