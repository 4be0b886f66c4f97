// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package lumen

// CRC-8/MAXIM (Dallas 1-Wire), reflected polynomial 0x8C.
const crcPolynomial = 0x8C

// CalculateCRC computes the CRC-8 checksum for the given data.
func CalculateCRC(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// messageCRC computes the header CRC for a complete wire message. The CRC
// field itself is taken as zero.
func messageCRC(frame []byte) uint8 {
	crc := CalculateCRC(frame[:crcOffset])
	crc = continueCRC(crc, 0)
	return continueCRCBytes(crc, frame[crcOffset+1:])
}

const crcOffset = 1 // crc byte position within the header

func continueCRC(crc, b uint8) uint8 {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x01 != 0 {
			crc = (crc >> 1) ^ crcPolynomial
		} else {
			crc >>= 1
		}
	}
	return crc
}

func continueCRCBytes(crc uint8, data []byte) uint8 {
	for _, b := range data {
		crc = continueCRC(crc, b)
	}
	return crc
}
