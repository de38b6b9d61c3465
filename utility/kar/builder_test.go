// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"os"
	"testing"
	"time"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	if err := builder.Add("test", bytes.NewReader([]byte("idunvovkjnreovmegihjbrqlkmfrjnb"))); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"))); err != nil {
		t.Fatal(err)
	}

	if len(builder.files) != 2 {
		t.Error("incorrect number of files present")
	}
	if builder.files[0].Size != 31 {
		t.Errorf("incorrect uncompressed size: %d", builder.files[0].Size)
	}

	buf := bytes.NewBuffer(nil)
	num, err := builder.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if num != int64(buf.Len()) {
		t.Errorf("reported %d written, buffer holds %d", num, buf.Len())
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("KAR\x00")) {
		t.Error("archive does not start with magic")
	}
}

func TestBuilderClose(t *testing.T) {
	builder, err := NewBuilder(Header{Author: "devblok"})
	if err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test", bytes.NewReader([]byte("data"))); err != nil {
		t.Fatal(err)
	}
	if err := builder.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(builder.tempDir); !os.IsNotExist(err) {
		t.Error("temporary dir was not removed")
	}
}

func TestHeaderSizeEncoding(t *testing.T) {
	for _, num := range []int64{0, 1, 255, 1 << 40} {
		got, err := binaryToint64(int64ToBinary(num))
		if err != nil {
			t.Fatal(err)
		}
		if got != num {
			t.Errorf("expected %d, got %d", num, got)
		}
	}
	if _, err := binaryToint64([]byte{1, 2}); err != ErrFileFormat {
		t.Errorf("expected ErrFileFormat, got %v", err)
	}
}
